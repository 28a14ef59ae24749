package channel

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeStateUpdate(t *testing.T) {
	raw := []byte(`{
		"type": "state_update",
		"timestamp": 1700000000000,
		"data": {
			"conceptGraph": {
				"nodes": [
					{"id": "bond", "weight": 4, "activation": 0.8, "recent": true},
					{"id": "cell", "weight": 9}
				],
				"edges": [
					{"source": "bond", "target": "cell", "weight": 1.5}
				]
			},
			"metrics": {"complexity": 12.5, "structures": 3},
			"emotionalState": {"curiosity": 0.7},
			"mode": {"active": true, "paused": false}
		}
	}`)

	ev, err := decodeEvent(raw, time.Now())
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if ev.Kind != EventStateUpdate {
		t.Fatalf("kind = %q, want state_update", ev.Kind)
	}
	if got := ev.At.UnixMilli(); got != 1700000000000 {
		t.Errorf("At = %d, want the envelope timestamp", got)
	}

	su, ok := ev.Payload.(*StateUpdate)
	if !ok {
		t.Fatalf("payload type = %T, want *StateUpdate", ev.Payload)
	}
	if su.ConceptGraph == nil || len(su.ConceptGraph.Nodes) != 2 {
		t.Fatal("concept graph nodes missing")
	}
	if su.ConceptGraph.Edges[0].Source.String() != "bond" {
		t.Errorf("edge source = %q, want bond", su.ConceptGraph.Edges[0].Source)
	}
	if su.Metrics["complexity"] != 12.5 {
		t.Errorf("metrics[complexity] = %v, want 12.5", su.Metrics["complexity"])
	}
	if su.EmotionalState["curiosity"] != 0.7 {
		t.Errorf("emotionalState[curiosity] = %v, want 0.7", su.EmotionalState["curiosity"])
	}
	if su.Mode == nil || !su.Mode.Active || su.Mode.Paused {
		t.Errorf("mode = %+v, want active and not paused", su.Mode)
	}
}

func TestDecodePartialStateUpdate(t *testing.T) {
	raw := []byte(`{"type": "state_update", "data": {"metrics": {"stability": 8.1}}}`)

	ev, err := decodeEvent(raw, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	su := ev.Payload.(*StateUpdate)
	if su.ConceptGraph != nil || su.Mode != nil || su.EmotionalState != nil {
		t.Error("absent sections decoded as present")
	}
	if su.Metrics["stability"] != 8.1 {
		t.Errorf("metrics[stability] = %v, want 8.1", su.Metrics["stability"])
	}
	// No timestamp on the wire: the receive time stands in.
	if !ev.At.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("At = %v, want receive time fallback", ev.At)
	}
}

func TestDecodeEdgeEndpointForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"key string", `"proto-cell"`, "proto-cell"},
		{"node reference by id", `{"id": "proto-cell", "weight": 3}`, "proto-cell"},
		{"node reference by key", `{"key": "proto-cell"}`, "proto-cell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ep EdgeEndpoint
			if err := json.Unmarshal([]byte(tt.raw), &ep); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if ep.String() != tt.want {
				t.Errorf("endpoint = %q, want %q", ep, tt.want)
			}
		})
	}

	var ep EdgeEndpoint
	if err := json.Unmarshal([]byte(`42`), &ep); err == nil {
		t.Error("numeric endpoint decoded without error, want rejection")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"type": "state_update"`},
		{"missing type", `{"data": {}}`},
		{"wrong payload shape", `{"type": "cycle_complete", "data": {"step": "three"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeEvent([]byte(tt.raw), time.Now()); err == nil {
				t.Error("decodeEvent accepted a malformed message")
			}
		})
	}
}

func TestDecodeUnknownKindPassesThrough(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"type": "telemetry_v2", "data": {"x": 1}}`), time.Now())
	if err != nil {
		t.Fatalf("unknown kind rejected: %v", err)
	}
	if ev.Kind != "telemetry_v2" {
		t.Errorf("kind = %q", ev.Kind)
	}
	if ev.Payload != nil {
		t.Errorf("payload = %v, want nil for unknown kinds", ev.Payload)
	}
	if len(ev.Raw) == 0 {
		t.Error("raw body dropped for unknown kind")
	}
}

func TestCommandValidation(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"start learning ok", NewStartLearning(500, 100), false},
		{"start learning zero steps", StartLearning{Enable: true, Steps: 0}, true},
		{"start learning negative delay", StartLearning{Enable: true, Steps: 10, DelayMs: -1}, true},
		{"stop learning", StopLearning{}, false},
		{"pause", PauseLearning{Pause: true}, false},
		{"prompt ok", SendPrompt{Text: "what are you building?"}, false},
		{"prompt empty", SendPrompt{}, true},
		{"adjust ok", AdjustParameter{Category: "physics", Name: "temperature", Value: 0.4}, false},
		{"adjust missing name", AdjustParameter{Category: "physics"}, true},
		{"save state", SaveState{}, false},
		{"load state ok", LoadState{SessionID: "session-7"}, false},
		{"load state missing id", LoadState{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.cmd)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCommand(%T) = %v, wantErr %v", tt.cmd, err, tt.wantErr)
			}
		})
	}
}

func TestEncodeCommandEnvelope(t *testing.T) {
	now := time.Unix(1700000000, 0)
	frame, err := encodeCommand(NewStartLearning(100, 50), now)
	if err != nil {
		t.Fatalf("encodeCommand: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if env.Type != "start_learning" {
		t.Errorf("type = %q, want start_learning", env.Type)
	}
	if env.Timestamp != now.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", env.Timestamp, now.UnixMilli())
	}

	var payload StartLearning
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !payload.Enable || payload.Steps != 100 || payload.DelayMs != 50 {
		t.Errorf("payload = %+v", payload)
	}
}

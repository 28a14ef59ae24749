package channel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Inbound event kinds pushed by the simulation.
const (
	EventStateUpdate      = "state_update"
	EventResponse         = "response"
	EventThresholdCrossed = "threshold_crossed"
	EventModeUpdate       = "mode_update"
	EventCycleComplete    = "cycle_complete"
	EventError            = "error"

	// EventDisconnected is synthesized locally when the connection drops; it
	// never appears on the wire.
	EventDisconnected = "disconnected"
)

// envelope is the wire frame for both directions. Timestamp is unix
// milliseconds; zero means the sender did not stamp it.
type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Event is one decoded inbound message. Payload holds the kind-specific
// struct below; subscribers type-assert on it. Raw keeps the undecoded body
// for kinds the codec does not know.
type Event struct {
	Kind    string
	At      time.Time
	Payload any
	Raw     json.RawMessage
}

// StateUpdate is a partial snapshot: every section is optional and absent
// sections leave prior state untouched.
type StateUpdate struct {
	ConceptGraph   *GraphPayload      `json:"conceptGraph,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	EmotionalState map[string]float64 `json:"emotionalState,omitempty"`
	Mode           *ModeUpdate        `json:"mode,omitempty"`
}

// GraphPayload carries the full node/edge set of a snapshot; retention and
// filtering happen on our side.
type GraphPayload struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type GraphNode struct {
	ID         string  `json:"id"`
	Weight     float64 `json:"weight"`
	Activation float64 `json:"activation,omitempty"`
	Recent     bool    `json:"recent,omitempty"`
}

type GraphEdge struct {
	Source EdgeEndpoint `json:"source"`
	Target EdgeEndpoint `json:"target"`
	Weight float64      `json:"weight"`
}

// EdgeEndpoint accepts either a raw key string or a resolved node object
// ({"id": ...} or {"key": ...}); either way it normalizes to the key string
// so endpoint identity is always compared the same way.
type EdgeEndpoint string

func (e *EdgeEndpoint) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = EdgeEndpoint(s)
		return nil
	}
	var ref struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := json.Unmarshal(b, &ref); err != nil {
		return fmt.Errorf("edge endpoint is neither key string nor node reference: %w", err)
	}
	if ref.ID != "" {
		*e = EdgeEndpoint(ref.ID)
	} else {
		*e = EdgeEndpoint(ref.Key)
	}
	return nil
}

func (e EdgeEndpoint) String() string { return string(e) }

// InteractionEvent is one prompt/response exchange reported by the
// simulation.
type InteractionEvent struct {
	Prompt        string `json:"prompt"`
	Response      string `json:"response"`
	UserGenerated bool   `json:"userGenerated"`
}

// CrossingEvent is a threshold alert the simulation detected on its side.
type CrossingEvent struct {
	MetricName  string `json:"metricName"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// ModeUpdate is the authoritative learning-session state.
type ModeUpdate struct {
	Active bool `json:"active"`
	Paused bool `json:"paused"`
}

// CycleComplete reports learning progress.
type CycleComplete struct {
	Step       int `json:"step"`
	TotalSteps int `json:"totalSteps"`
}

// ErrorEvent is a non-fatal error surfaced by the simulation.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Disconnected is the payload of the synthetic EventDisconnected.
type Disconnected struct {
	Reason string
}

// decodeEvent parses one wire frame into an Event. Unknown kinds pass
// through with a nil Payload and the raw body attached; a malformed body for
// a known kind is an error the caller discards without dropping the
// connection.
func decodeEvent(raw []byte, now time.Time) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Type == "" {
		return Event{}, fmt.Errorf("envelope missing type")
	}

	at := now
	if env.Timestamp > 0 {
		at = time.UnixMilli(env.Timestamp)
	}
	ev := Event{Kind: env.Type, At: at, Raw: env.Data}

	var payload any
	switch env.Type {
	case EventStateUpdate:
		payload = &StateUpdate{}
	case EventResponse:
		payload = &InteractionEvent{}
	case EventThresholdCrossed:
		payload = &CrossingEvent{}
	case EventModeUpdate:
		payload = &ModeUpdate{}
	case EventCycleComplete:
		payload = &CycleComplete{}
	case EventError:
		payload = &ErrorEvent{}
	default:
		return ev, nil
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, payload); err != nil {
			return Event{}, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
	}
	ev.Payload = payload
	return ev, nil
}

// Command is an outbound control message. Concrete commands carry their own
// validation tags; Validate runs before anything touches the wire.
type Command interface {
	Kind() string
}

// StartLearning opens an autonomous learning session.
type StartLearning struct {
	Enable  bool `json:"enable"`
	Steps   int  `json:"steps" validate:"required,gt=0,lte=100000"`
	DelayMs int  `json:"delayMs" validate:"gte=0,lte=600000"`
}

func NewStartLearning(steps, delayMs int) StartLearning {
	return StartLearning{Enable: true, Steps: steps, DelayMs: delayMs}
}

func (StartLearning) Kind() string { return "start_learning" }

// StopLearning ends the current session.
type StopLearning struct {
	Enable bool `json:"enable"`
}

func (StopLearning) Kind() string { return "stop_learning" }

// PauseLearning pauses or resumes an open session.
type PauseLearning struct {
	Pause bool `json:"pause"`
}

func (PauseLearning) Kind() string { return "pause_learning" }

// SendPrompt submits free-text input.
type SendPrompt struct {
	Text string `json:"text" validate:"required,max=4096"`
}

func (SendPrompt) Kind() string { return "send_prompt" }

// AdjustParameter tunes one named simulation parameter.
type AdjustParameter struct {
	Category string  `json:"category" validate:"required,max=128"`
	Name     string  `json:"name" validate:"required,max=128"`
	Value    float64 `json:"value"`
}

func (AdjustParameter) Kind() string { return "adjust_parameter" }

// SaveState asks the simulation to persist its current session.
type SaveState struct{}

func (SaveState) Kind() string { return "save_state" }

// LoadState restores a previously saved session.
type LoadState struct {
	SessionID string `json:"sessionId" validate:"required,max=256"`
}

func (LoadState) Kind() string { return "load_state" }

var validate = validator.New()

// ValidateCommand rejects invalid parameters before transmission so the
// simulation never sees them.
func ValidateCommand(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("nil command")
	}
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("invalid %s command: %w", cmd.Kind(), err)
	}
	return nil
}

// encodeCommand wraps a validated command in the wire envelope.
func encodeCommand(cmd Command, now time.Time) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", cmd.Kind(), err)
	}
	return json.Marshal(envelope{
		Type:      cmd.Kind(),
		Data:      data,
		Timestamp: now.UnixMilli(),
	})
}

package memory

import (
	"testing"
	"time"

	"emergence-monitor-be/internal/model"

	"github.com/google/uuid"
)

func makeAlert(metric, severity string, at time.Time) *model.Alert {
	return &model.Alert{
		ID:          uuid.New(),
		Metric:      metric,
		Description: metric + " crossed",
		Value:       1.0,
		Threshold:   0.5,
		Severity:    severity,
		Source:      "monitor",
		Timestamp:   at,
	}
}

func TestAlertStoreOrdersBySeverityThenRecency(t *testing.T) {
	store := NewAlertStore(time.Minute)
	base := time.Now()

	store.Record(makeAlert("negentropy", "warning", base))
	store.Record(makeAlert("feedback_strength", "critical", base.Add(-10*time.Second)))
	store.Record(makeAlert("resilience", "severe", base.Add(-5*time.Second)))
	store.Record(makeAlert("negentropy", "critical", base.Add(-2*time.Second)))

	active := store.Active()
	if len(active) != 4 {
		t.Fatalf("expected 4 active alerts, got %d", len(active))
	}

	wantSeverity := []string{"critical", "critical", "severe", "warning"}
	for i, want := range wantSeverity {
		if active[i].Severity != want {
			t.Errorf("position %d: expected severity %s, got %s", i, want, active[i].Severity)
		}
	}

	// Within the critical pair the newer alert comes first.
	if active[0].Metric != "negentropy" {
		t.Errorf("expected newest critical alert first, got metric %s", active[0].Metric)
	}
}

func TestAlertStoreExpiresEntries(t *testing.T) {
	store := NewAlertStore(30 * time.Millisecond)
	store.Record(makeAlert("negentropy", "warning", time.Now()))

	if store.Count() != 1 {
		t.Fatalf("expected 1 alert before expiry, got %d", store.Count())
	}

	time.Sleep(60 * time.Millisecond)

	if got := len(store.Active()); got != 0 {
		t.Errorf("expected no active alerts after TTL, got %d", got)
	}
}

func TestAlertStoreClear(t *testing.T) {
	store := NewAlertStore(time.Minute)
	store.Record(makeAlert("negentropy", "warning", time.Now()))
	store.Record(makeAlert("resilience", "severe", time.Now()))

	store.Clear()

	if store.Count() != 0 {
		t.Errorf("expected empty store after clear, got %d entries", store.Count())
	}
}

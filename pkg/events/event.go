// Package events defines the envelope shared by everything that crosses the
// monitor's NATS bus. Producers publish one of the named types below;
// consumers switch on EventType and read the payload map.
package events

import "time"

// Event types carried on the bus. The type doubles as the subject suffix, so
// it must stay stable across monitor versions that share a stream.
const (
	TypeAlertRaised       = "ALERT_RAISED"
	TypeLearningCompleted = "LEARNING_SESSION_COMPLETED"
	TypeLinkStateChanged  = "LINK_STATE_CHANGED"
)

// Event is what bus handlers receive. Payload is a flat map rather than a
// typed struct because sibling instances may run different builds and unknown
// keys must pass through unharmed.
type Event interface {
	// EventType returns the bus type code, one of the Type* constants.
	EventType() string

	// Payload returns the event's data map.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred at the producer.
	Timestamp() time.Time
}

// BaseEvent is the concrete envelope both sides use. Subscribers rebuild one
// from the wire, so it carries no behavior beyond the interface.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New stamps a BaseEvent with the current time. Publishers that need a
// different occurrence time build the struct directly.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

package alerts

import (
	"context"
	"time"

	"emergence-monitor-be/internal/pkg/logger"
	pkgEvents "emergence-monitor-be/pkg/events"
	pktNats "emergence-monitor-be/pkg/nats"

	"github.com/google/uuid"
)

// Publisher abstracts event publishing for monitor alerts so services never
// care whether a bus is attached.
type Publisher interface {
	PublishAlertRaised(ctx context.Context, alertId uuid.UUID, metric, description, severity, source string, value, threshold float64)
	PublishLearningCompleted(ctx context.Context, step, totalSteps int)
	PublishLinkStateChanged(ctx context.Context, connected bool, url string)
}

// NatsPublisher implements Publisher using NATS
type NatsPublisher struct {
	publisher *pktNats.Publisher
	logger    logger.ILogger
}

// NewNatsPublisher creates a new NATS-based alert publisher. A nil inner
// publisher is allowed: every method becomes a no-op, which is how the
// monitor runs when NATS is not configured.
func NewNatsPublisher(publisher *pktNats.Publisher, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishAlertRaised emits ALERT_RAISED for every threshold crossing,
// whether detected locally or forwarded by the simulation.
func (p *NatsPublisher) PublishAlertRaised(ctx context.Context, alertId uuid.UUID, metric, description, severity, source string, value, threshold float64) {
	if p.publisher == nil {
		return
	}

	now := time.Now()
	evt := pkgEvents.BaseEvent{
		Type: pkgEvents.TypeAlertRaised,
		Data: map[string]interface{}{
			"alert_id":    alertId,
			"metric":      metric,
			"description": description,
			"severity":    severity,
			"source":      source,
			"value":       value,
			"threshold":   threshold,
			"entity_type": "alert",
			"entity_id":   alertId.String(),
			"occurred_at": now,
		},
		OccurredAt: now,
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("ALERTS", "Failed to publish ALERT_RAISED event", map[string]interface{}{"error": err.Error()})
	}
}

// PublishLearningCompleted emits LEARNING_SESSION_COMPLETED when the
// simulation reports its final cycle.
func (p *NatsPublisher) PublishLearningCompleted(ctx context.Context, step, totalSteps int) {
	if p.publisher == nil {
		return
	}

	evt := pkgEvents.New(pkgEvents.TypeLearningCompleted, map[string]interface{}{
		"step":        step,
		"total_steps": totalSteps,
	})

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("ALERTS", "Failed to publish LEARNING_SESSION_COMPLETED event", map[string]interface{}{"error": err.Error()})
	}
}

// PublishLinkStateChanged emits LINK_STATE_CHANGED when the simulation link
// connects or drops.
func (p *NatsPublisher) PublishLinkStateChanged(ctx context.Context, connected bool, url string) {
	if p.publisher == nil {
		return
	}

	evt := pkgEvents.New(pkgEvents.TypeLinkStateChanged, map[string]interface{}{
		"connected": connected,
		"url":       url,
	})

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("ALERTS", "Failed to publish LINK_STATE_CHANGED event", map[string]interface{}{"error": err.Error()})
	}
}

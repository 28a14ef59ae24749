package service

import (
	"context"

	"emergence-monitor-be/internal/constant"
	"emergence-monitor-be/internal/model"
	"emergence-monitor-be/internal/pkg/logger"
	"emergence-monitor-be/internal/repository/memory"
	pkgEvents "emergence-monitor-be/pkg/events"
	pktNats "emergence-monitor-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
)

// IFaninService mirrors alerts raised by sibling monitor instances into the
// local display. Every instance publishes ALERT_RAISED to the MONITOR stream;
// every instance also consumes it, so a dashboard sees crossings no matter
// which instance detected them.
type IFaninService interface {
	Start()
}

type faninService struct {
	subscriber *pktNats.Subscriber
	store      *memory.AlertStore
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewFaninService(
	subscriber *pktNats.Subscriber,
	store *memory.AlertStore,
	publisher IPublisherService,
	log logger.ILogger,
) IFaninService {
	return &faninService{
		subscriber: subscriber,
		store:      store,
		publisher:  publisher,
		logger:     log,
	}
}

// Start begins listening to the alert stream with a durable consumer.
func (s *faninService) Start() {
	subject := pktNats.Subject(pkgEvents.TypeAlertRaised)
	err := s.subscriber.Subscribe(subject, "alert-fanin-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("FaninService", "Failed to start alert fan-in subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("FaninService", "Alert fan-in started", map[string]interface{}{"subject": subject})
}

func (s *faninService) handleEvent(ctx context.Context, event pkgEvents.Event) error {
	payload := event.Payload()

	idStr, _ := payload["alert_id"].(string)
	alertId, err := uuid.Parse(idStr)
	if err != nil {
		// Malformed events are dropped, not retried; a redelivery would be
		// just as malformed.
		s.logger.Warn("FaninService", "Alert event without usable id, dropping", map[string]interface{}{"alert_id": idStr})
		return nil
	}

	// Our own alerts and JetStream redeliveries come back on the same
	// subject. The store is keyed by id, so a known id means nothing to do.
	if s.store.Has(alertId) {
		return nil
	}

	metric, _ := payload["metric"].(string)
	description, _ := payload["description"].(string)
	severity, _ := payload["severity"].(string)
	source, _ := payload["source"].(string)
	value, _ := payload["value"].(float64)
	limit, _ := payload["threshold"].(float64)

	alert := &model.Alert{
		ID:          alertId,
		Metric:      metric,
		Description: description,
		Value:       value,
		Threshold:   limit,
		Severity:    severity,
		Source:      source,
		Timestamp:   event.Timestamp(),
	}
	s.store.Record(alert)

	s.logger.Info("FaninService", "Mirrored sibling alert", map[string]interface{}{
		"alert_id": alertId.String(),
		"metric":   metric,
		"severity": severity,
	})

	if err := s.publisher.Publish(ctx, constant.KindAlert, alert); err != nil {
		s.logger.Error("FaninService", "Failed to push mirrored alert to dashboards", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

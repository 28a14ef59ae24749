package service

import (
	"context"
	"fmt"
	"time"

	"emergence-monitor-be/internal/constant"
	"emergence-monitor-be/internal/model"
	"emergence-monitor-be/internal/pkg/logger"
	"emergence-monitor-be/internal/pkg/mailer"
	"emergence-monitor-be/internal/repository/memory"
	"emergence-monitor-be/pkg/alerts"
	"emergence-monitor-be/pkg/channel"
	"emergence-monitor-be/pkg/threshold"

	"github.com/google/uuid"
)

// IAlertService turns threshold crossings into alert records and fans them
// out: dashboard push, durable event stream, and optionally email for the
// severities that warrant waking someone up.
type IAlertService interface {
	RaiseLocal(ctx context.Context, crossing threshold.Crossing)
	RaiseForwarded(ctx context.Context, event channel.CrossingEvent, at time.Time)
	Active() []model.Alert
	Count() int
	Clear()
}

type alertService struct {
	store        *memory.AlertStore
	publisher    IPublisherService
	events       alerts.Publisher
	emailService mailer.IEmailService
	thresholds   map[string]float64
	mailTo       string
	mailMinRank  int
	logger       logger.ILogger
}

func NewAlertService(
	store *memory.AlertStore,
	publisher IPublisherService,
	events alerts.Publisher,
	emailService mailer.IEmailService,
	thresholds map[string]float64,
	mailTo string,
	mailMinSeverity string,
	log logger.ILogger,
) IAlertService {
	return &alertService{
		store:        store,
		publisher:    publisher,
		events:       events,
		emailService: emailService,
		thresholds:   thresholds,
		mailTo:       mailTo,
		mailMinRank:  threshold.SeverityRank(threshold.Severity(mailMinSeverity)),
		logger:       log,
	}
}

// RaiseLocal records a crossing our own detector produced from windowed
// metric derivations.
func (s *alertService) RaiseLocal(ctx context.Context, crossing threshold.Crossing) {
	alert := &model.Alert{
		ID:          uuid.New(),
		Metric:      crossing.Metric,
		Description: fmt.Sprintf("%s reached %.3f (threshold %.3f)", crossing.Metric, crossing.Value, crossing.Threshold),
		Value:       crossing.Value,
		Threshold:   crossing.Threshold,
		Severity:    string(crossing.Severity),
		Source:      constant.AlertSourceLocal,
		Timestamp:   crossing.At,
	}
	s.raise(ctx, alert)
}

// RaiseForwarded records a crossing the simulation announced itself. The
// simulation does not include the measured value, so only the configured
// threshold is attached.
func (s *alertService) RaiseForwarded(ctx context.Context, event channel.CrossingEvent, at time.Time) {
	alert := &model.Alert{
		ID:          uuid.New(),
		Metric:      event.MetricName,
		Description: event.Description,
		Threshold:   s.thresholds[event.MetricName],
		Severity:    event.Severity,
		Source:      constant.AlertSourceForwarded,
		Timestamp:   at,
	}
	s.raise(ctx, alert)
}

func (s *alertService) raise(ctx context.Context, alert *model.Alert) {
	s.store.Record(alert)

	s.logger.Warn("AlertService", "Threshold crossed", map[string]interface{}{
		"metric":   alert.Metric,
		"severity": alert.Severity,
		"value":    alert.Value,
		"source":   alert.Source,
	})

	if err := s.publisher.Publish(ctx, constant.KindAlert, alert); err != nil {
		s.logger.Error("AlertService", "Failed to push alert to dashboards", map[string]interface{}{"error": err.Error()})
	}

	if s.events != nil {
		s.events.PublishAlertRaised(ctx, alert.ID, alert.Metric, alert.Description, alert.Severity, alert.Source, alert.Value, alert.Threshold)
	}

	s.maybeMail(alert)
}

func (s *alertService) maybeMail(alert *model.Alert) {
	if s.mailTo == "" || s.emailService == nil {
		return
	}
	if threshold.SeverityRank(threshold.Severity(alert.Severity)) < s.mailMinRank {
		return
	}

	a := *alert
	go func() {
		emailErr := s.emailService.SendAlert(s.mailTo, a.Metric, a.Description, a.Severity, a.Value, a.Threshold, a.Timestamp)
		if emailErr != nil {
			fmt.Printf("Error sending alert email: %v\n", emailErr)
		}
	}()
}

func (s *alertService) Active() []model.Alert {
	return s.store.Active()
}

func (s *alertService) Count() int {
	return s.store.Count()
}

func (s *alertService) Clear() {
	s.store.Clear()
}

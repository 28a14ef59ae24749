package service

import (
	"context"

	"emergence-monitor-be/internal/dto"
	"emergence-monitor-be/internal/model"
	"emergence-monitor-be/internal/repository/memory"
	"emergence-monitor-be/internal/websocket"
	"emergence-monitor-be/pkg/channel"
	"emergence-monitor-be/pkg/graph"
	"emergence-monitor-be/pkg/metrics"
	"emergence-monitor-be/pkg/mode"
	"emergence-monitor-be/pkg/threshold"
)

// IMonitorService is the read surface for the REST controller: everything a
// dashboard needs to paint its initial state before live pushes take over.
type IMonitorService interface {
	Status(ctx context.Context) *dto.StatusResponse
	Metrics(ctx context.Context) metrics.Snapshot
	Graph(ctx context.Context) *dto.GraphResponse
	Alerts(ctx context.Context) *dto.AlertsResponse
	Interactions(ctx context.Context) []model.Interaction
}

type monitorService struct {
	stream       *channel.Channel
	store        *metrics.Store
	detector     *threshold.Detector
	renderer     *graph.Renderer
	modes        *mode.Controller
	interactions *memory.InteractionLog
	alertSvc     IAlertService
	streamSvc    IStreamService
	hub          *websocket.Hub
}

func NewMonitorService(
	stream *channel.Channel,
	store *metrics.Store,
	detector *threshold.Detector,
	renderer *graph.Renderer,
	modes *mode.Controller,
	interactions *memory.InteractionLog,
	alertSvc IAlertService,
	streamSvc IStreamService,
	hub *websocket.Hub,
) IMonitorService {
	return &monitorService{
		stream:       stream,
		store:        store,
		detector:     detector,
		renderer:     renderer,
		modes:        modes,
		interactions: interactions,
		alertSvc:     alertSvc,
		streamSvc:    streamSvc,
		hub:          hub,
	}
}

func (s *monitorService) Status(ctx context.Context) *dto.StatusResponse {
	return &dto.StatusResponse{
		Channel:        s.stream.Status(),
		Mode:           string(s.modes.Mode()),
		InputEnabled:   s.modes.InputEnabled(),
		Phase:          s.store.Derive(metrics.DerivedPhase).Label,
		EmotionalState: s.streamSvc.EmotionalState(),
		Progress:       s.streamSvc.Progress(),
		ActiveAlerts:   s.alertSvc.Count(),
		Dashboards:     s.hub.Count(),
	}
}

func (s *monitorService) Metrics(ctx context.Context) metrics.Snapshot {
	return s.store.Snapshot()
}

func (s *monitorService) Graph(ctx context.Context) *dto.GraphResponse {
	return &dto.GraphResponse{
		Frame:         s.renderer.Frame(),
		RetainedNodes: s.renderer.RetainedSize(),
	}
}

func (s *monitorService) Alerts(ctx context.Context) *dto.AlertsResponse {
	return &dto.AlertsResponse{
		Active:     s.alertSvc.Active(),
		Thresholds: s.detector.Thresholds(),
	}
}

func (s *monitorService) Interactions(ctx context.Context) []model.Interaction {
	return s.interactions.List()
}

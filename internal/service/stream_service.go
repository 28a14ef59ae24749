package service

import (
	"context"
	"sync"
	"time"

	"emergence-monitor-be/internal/constant"
	"emergence-monitor-be/internal/dto"
	"emergence-monitor-be/internal/model"
	"emergence-monitor-be/internal/pkg/logger"
	"emergence-monitor-be/internal/repository/memory"
	"emergence-monitor-be/pkg/alerts"
	"emergence-monitor-be/pkg/channel"
	"emergence-monitor-be/pkg/graph"
	"emergence-monitor-be/pkg/metrics"
	"emergence-monitor-be/pkg/mode"
	"emergence-monitor-be/pkg/threshold"

	"github.com/google/uuid"
)

// IStreamService routes simulation events into the monitor: metric windows,
// the render pipeline, alerting, mode tracking and dashboard pushes. Start
// wires the subscriptions; handlers then run on the channel's read loop, so
// everything here stays cheap and non-blocking.
type IStreamService interface {
	Start()
	AnnounceLink(ctx context.Context, connected bool)
	EmotionalState() map[string]float64
	Progress() *dto.ProgressUpdate
}

type streamService struct {
	stream       *channel.Channel
	store        *metrics.Store
	detector     *threshold.Detector
	renderer     *graph.Renderer
	modes        *mode.Controller
	interactions *memory.InteractionLog
	alertSvc     IAlertService
	publisher    IPublisherService
	events       alerts.Publisher
	logger       logger.ILogger

	mu        sync.RWMutex
	emotional map[string]float64
	progress  *dto.ProgressUpdate
}

func NewStreamService(
	stream *channel.Channel,
	store *metrics.Store,
	detector *threshold.Detector,
	renderer *graph.Renderer,
	modes *mode.Controller,
	interactions *memory.InteractionLog,
	alertSvc IAlertService,
	publisher IPublisherService,
	events alerts.Publisher,
	log logger.ILogger,
) IStreamService {
	return &streamService{
		stream:       stream,
		store:        store,
		detector:     detector,
		renderer:     renderer,
		modes:        modes,
		interactions: interactions,
		alertSvc:     alertSvc,
		publisher:    publisher,
		events:       events,
		logger:       log,
	}
}

// Start subscribes to every event kind the simulation emits, plus the
// synthetic disconnect. Call once; subscriptions live for the process.
func (s *streamService) Start() {
	s.stream.Subscribe(channel.EventStateUpdate, s.onStateUpdate)
	s.stream.Subscribe(channel.EventResponse, s.onResponse)
	s.stream.Subscribe(channel.EventThresholdCrossed, s.onThresholdCrossed)
	s.stream.Subscribe(channel.EventModeUpdate, s.onModeUpdate)
	s.stream.Subscribe(channel.EventCycleComplete, s.onCycleComplete)
	s.stream.Subscribe(channel.EventError, s.onError)
	s.stream.Subscribe(channel.EventDisconnected, s.onDisconnected)

	s.logger.Info("StreamService", "Subscribed to simulation events", nil)
}

// AnnounceLink pushes the link state to dashboards and the event stream.
// Called by the connection supervisor on connect and after teardown.
func (s *streamService) AnnounceLink(ctx context.Context, connected bool) {
	status := s.stream.Status()
	push := dto.LinkStatusPush{Connected: connected, URL: status.URL}
	if err := s.publisher.Publish(ctx, constant.KindStatus, push); err != nil {
		s.logger.Error("StreamService", "Failed to push link status", map[string]interface{}{"error": err.Error()})
	}
	if s.events != nil {
		s.events.PublishLinkStateChanged(ctx, connected, status.URL)
	}
}

func (s *streamService) EmotionalState() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.emotional == nil {
		return nil
	}
	out := make(map[string]float64, len(s.emotional))
	for k, v := range s.emotional {
		out[k] = v
	}
	return out
}

func (s *streamService) Progress() *dto.ProgressUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.progress == nil {
		return nil
	}
	p := *s.progress
	return &p
}

// onStateUpdate fans one partial snapshot out to the subsystems that care.
// Sections are independent: an update carrying only metrics must not disturb
// the rendered graph, and vice versa.
func (s *streamService) onStateUpdate(ev channel.Event) {
	update, ok := ev.Payload.(*channel.StateUpdate)
	if !ok {
		return
	}
	ctx := context.Background()

	if len(update.Metrics) > 0 {
		s.ingestMetrics(ctx, update.Metrics, ev.At)
	}

	if update.ConceptGraph != nil {
		s.ingestGraph(update.ConceptGraph)
	}

	if update.EmotionalState != nil {
		s.mu.Lock()
		s.emotional = update.EmotionalState
		s.mu.Unlock()
		s.push(ctx, constant.KindEmotionalState, update.EmotionalState)
	}

	if update.Mode != nil {
		s.applyMode(ctx, update.Mode.Active, update.Mode.Paused)
	}
}

func (s *streamService) ingestMetrics(ctx context.Context, values map[string]float64, at time.Time) {
	for name, value := range values {
		s.store.Record(name, value, at)
	}

	derived := s.store.DeriveAll()
	observations := make([]threshold.Observation, 0, len(derived))
	for _, d := range derived {
		obsAt := d.At
		if obsAt.IsZero() {
			obsAt = at
		}
		observations = append(observations, threshold.Observation{Metric: d.Name, Value: d.Value, At: obsAt})
	}

	for _, crossing := range s.detector.Sweep(observations) {
		s.alertSvc.RaiseLocal(ctx, crossing)
	}

	s.push(ctx, constant.KindMetrics, dto.MetricsPush{
		Values:  values,
		Derived: derived,
		Phase:   s.store.Derive(metrics.DerivedPhase).Label,
	})
}

func (s *streamService) ingestGraph(payload *channel.GraphPayload) {
	nodes := make([]graph.Node, len(payload.Nodes))
	for i, n := range payload.Nodes {
		nodes[i] = graph.Node{
			Key:        n.ID,
			Weight:     n.Weight,
			Activation: n.Activation,
			Recent:     n.Recent,
		}
	}
	edges := make([]graph.Edge, len(payload.Edges))
	for i, e := range payload.Edges {
		edges[i] = graph.Edge{
			Source: e.Source.String(),
			Target: e.Target.String(),
			Weight: e.Weight,
		}
	}
	s.renderer.SetGraph(nodes, edges)
}

func (s *streamService) onResponse(ev channel.Event) {
	interaction, ok := ev.Payload.(*channel.InteractionEvent)
	if !ok {
		return
	}

	entry := model.Interaction{
		ID:            uuid.New(),
		Prompt:        interaction.Prompt,
		Response:      interaction.Response,
		UserGenerated: interaction.UserGenerated,
		Timestamp:     ev.At,
	}
	s.interactions.Append(entry)
	s.push(context.Background(), constant.KindInteraction, entry)
}

func (s *streamService) onThresholdCrossed(ev channel.Event) {
	crossing, ok := ev.Payload.(*channel.CrossingEvent)
	if !ok {
		return
	}
	s.alertSvc.RaiseForwarded(context.Background(), *crossing, ev.At)
}

func (s *streamService) onModeUpdate(ev channel.Event) {
	update, ok := ev.Payload.(*channel.ModeUpdate)
	if !ok {
		return
	}
	s.applyMode(context.Background(), update.Active, update.Paused)
}

// applyMode reconciles the controller with the simulation's authoritative
// state and tells dashboards which mode to display.
func (s *streamService) applyMode(ctx context.Context, active, paused bool) {
	current := s.modes.Confirm(active, paused)
	s.push(ctx, constant.KindMode, dto.ModePush{
		Mode:         string(current),
		InputEnabled: s.modes.InputEnabled(),
	})
}

func (s *streamService) onCycleComplete(ev channel.Event) {
	cycle, ok := ev.Payload.(*channel.CycleComplete)
	if !ok {
		return
	}
	ctx := context.Background()

	progress := dto.ProgressUpdate{
		Step:       cycle.Step,
		TotalSteps: cycle.TotalSteps,
	}
	if cycle.TotalSteps > 0 {
		progress.Percent = float64(cycle.Step) / float64(cycle.TotalSteps) * 100
	}

	s.mu.Lock()
	s.progress = &progress
	s.mu.Unlock()

	s.push(ctx, constant.KindProgress, progress)

	// The final cycle ends the session even if the simulation never sends a
	// closing mode_update.
	if cycle.TotalSteps > 0 && cycle.Step >= cycle.TotalSteps {
		current := s.modes.SessionComplete()
		s.push(ctx, constant.KindMode, dto.ModePush{
			Mode:         string(current),
			InputEnabled: s.modes.InputEnabled(),
		})
		if s.events != nil {
			s.events.PublishLearningCompleted(ctx, cycle.Step, cycle.TotalSteps)
		}
		s.logger.Info("StreamService", "Learning session completed", map[string]interface{}{
			"steps": cycle.TotalSteps,
		})
	}
}

func (s *streamService) onError(ev channel.Event) {
	errEvent, ok := ev.Payload.(*channel.ErrorEvent)
	if !ok {
		return
	}
	s.logger.Warn("StreamService", "Simulation reported error", map[string]interface{}{"message": errEvent.Message})
	s.push(context.Background(), constant.KindStatus, map[string]interface{}{
		"connected": true,
		"error":     errEvent.Message,
	})
}

// onDisconnected tears down live state. Windows, graph and mode describe the
// lost session; alerts and the interaction log are records and keep their own
// lifetimes.
func (s *streamService) onDisconnected(ev channel.Event) {
	ctx := context.Background()

	s.store.Reset()
	s.detector.Reset()
	s.renderer.Clear()
	s.modes.Reset()

	s.mu.Lock()
	s.emotional = nil
	s.progress = nil
	s.mu.Unlock()

	s.logger.Warn("StreamService", "Simulation link lost, live state cleared", nil)
	s.AnnounceLink(ctx, false)
}

func (s *streamService) push(ctx context.Context, kind string, payload interface{}) {
	if err := s.publisher.Publish(ctx, kind, payload); err != nil {
		s.logger.Error("StreamService", "Dashboard push failed", map[string]interface{}{
			"kind":  kind,
			"error": err.Error(),
		})
	}
}

package service

import (
	"context"

	"emergence-monitor-be/internal/dto"
	"emergence-monitor-be/internal/pkg/logger"
	"emergence-monitor-be/pkg/channel"
	"emergence-monitor-be/pkg/mode"
)

// ICommandService forwards operator commands to the simulation, gated by the
// mode controller. Acceptance means the command is on the wire, not that the
// simulation acted on it; mode changes land later as mode_update events.
type ICommandService interface {
	StartLearning(ctx context.Context, req *dto.StartLearningRequest) (*dto.CommandAccepted, error)
	StopLearning(ctx context.Context) (*dto.CommandAccepted, error)
	TogglePause(ctx context.Context) (*dto.CommandAccepted, error)
	SendPrompt(ctx context.Context, req *dto.PromptRequest) (*dto.CommandAccepted, error)
	AdjustParameter(ctx context.Context, req *dto.ParameterRequest) (*dto.CommandAccepted, error)
	SaveState(ctx context.Context) (*dto.CommandAccepted, error)
	LoadState(ctx context.Context, req *dto.LoadSessionRequest) (*dto.CommandAccepted, error)
}

// sender is the slice of the state channel the command service needs; tests
// substitute a recorder.
type sender interface {
	Send(cmd channel.Command) error
}

type commandService struct {
	stream sender
	modes  *mode.Controller
	logger logger.ILogger
}

func NewCommandService(stream sender, modes *mode.Controller, log logger.ILogger) ICommandService {
	return &commandService{
		stream: stream,
		modes:  modes,
		logger: log,
	}
}

func (s *commandService) StartLearning(ctx context.Context, req *dto.StartLearningRequest) (*dto.CommandAccepted, error) {
	if err := s.modes.RequestStart(); err != nil {
		return nil, err
	}

	cmd := channel.NewStartLearning(req.Steps, req.DelayMs)
	if err := s.stream.Send(cmd); err != nil {
		// The request never left the building; release the pending slot so a
		// retry is not rejected as a duplicate.
		s.modes.Confirm(false, false)
		return nil, err
	}

	s.logger.Info("CommandService", "Learning session requested", map[string]interface{}{
		"steps":    req.Steps,
		"delay_ms": req.DelayMs,
	})
	return s.accepted(cmd.Kind()), nil
}

func (s *commandService) StopLearning(ctx context.Context) (*dto.CommandAccepted, error) {
	if err := s.modes.RequestStop(); err != nil {
		return nil, err
	}

	cmd := channel.StopLearning{Enable: false}
	if err := s.stream.Send(cmd); err != nil {
		return nil, err
	}

	s.logger.Info("CommandService", "Learning stop requested", nil)
	return s.accepted(cmd.Kind()), nil
}

func (s *commandService) TogglePause(ctx context.Context) (*dto.CommandAccepted, error) {
	pause, err := s.modes.TogglePause()
	if err != nil {
		return nil, err
	}

	cmd := channel.PauseLearning{Pause: pause}
	if err := s.stream.Send(cmd); err != nil {
		// Undo the optimistic flip; the simulation never saw the request.
		s.modes.TogglePause()
		return nil, err
	}

	return s.accepted(cmd.Kind()), nil
}

func (s *commandService) SendPrompt(ctx context.Context, req *dto.PromptRequest) (*dto.CommandAccepted, error) {
	if err := s.modes.GuardPrompt(); err != nil {
		return nil, err
	}

	cmd := channel.SendPrompt{Text: req.Text}
	if err := s.stream.Send(cmd); err != nil {
		return nil, err
	}

	return s.accepted(cmd.Kind()), nil
}

func (s *commandService) AdjustParameter(ctx context.Context, req *dto.ParameterRequest) (*dto.CommandAccepted, error) {
	cmd := channel.AdjustParameter{
		Category: req.Category,
		Name:     req.Name,
		Value:    req.Value,
	}
	if err := s.stream.Send(cmd); err != nil {
		return nil, err
	}

	s.logger.Info("CommandService", "Parameter adjusted", map[string]interface{}{
		"category": req.Category,
		"name":     req.Name,
		"value":    req.Value,
	})
	return s.accepted(cmd.Kind()), nil
}

func (s *commandService) SaveState(ctx context.Context) (*dto.CommandAccepted, error) {
	cmd := channel.SaveState{}
	if err := s.stream.Send(cmd); err != nil {
		return nil, err
	}
	return s.accepted(cmd.Kind()), nil
}

func (s *commandService) LoadState(ctx context.Context, req *dto.LoadSessionRequest) (*dto.CommandAccepted, error) {
	cmd := channel.LoadState{SessionID: req.SessionID}
	if err := s.stream.Send(cmd); err != nil {
		return nil, err
	}

	s.logger.Info("CommandService", "Session load requested", map[string]interface{}{"session_id": req.SessionID})
	return s.accepted(cmd.Kind()), nil
}

func (s *commandService) accepted(command string) *dto.CommandAccepted {
	return &dto.CommandAccepted{
		Command: command,
		Mode:    string(s.modes.Mode()),
	}
}

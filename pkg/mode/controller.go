// Package mode tracks which interaction mode the monitor is in and which
// transitions the dashboard may request. Start and stop apply only once the
// simulation confirms them; pause and resume flip immediately and reconcile
// against the next authoritative update.
package mode

import (
	"errors"
	"sync"
)

// Mode is the monitor-side interaction mode.
type Mode string

const (
	// ModeInteractive accepts prompts and parameter changes.
	ModeInteractive Mode = "interactive"
	// ModeLearningActive runs an autonomous learning session; prompt input
	// is suspended.
	ModeLearningActive Mode = "learning_active"
	// ModeLearningPaused holds a learning session mid-flight; prompts are
	// allowed again.
	ModeLearningPaused Mode = "learning_paused"
)

var (
	ErrAlreadyLearning = errors.New("mode: learning session already running or requested")
	ErrNotLearning     = errors.New("mode: no learning session to act on")
	ErrInputSuspended  = errors.New("mode: prompt input suspended during active learning")
)

// Controller serializes mode transitions. Zero value is not usable; call
// NewController.
type Controller struct {
	mu           sync.Mutex
	mode         Mode
	startPending bool
}

func NewController() *Controller {
	return &Controller{mode: ModeInteractive}
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// RequestStart marks a learning session as requested. The mode stays
// interactive until the simulation confirms via Confirm; a second request
// before that confirmation is rejected.
func (c *Controller) RequestStart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeInteractive || c.startPending {
		return ErrAlreadyLearning
	}
	c.startPending = true
	return nil
}

// RequestStop validates that there is a session to stop. The transition back
// to interactive lands on confirmation or session completion.
func (c *Controller) RequestStop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeInteractive && !c.startPending {
		return ErrNotLearning
	}
	return nil
}

// TogglePause flips between active and paused optimistically and returns the
// pause flag to forward to the simulation. The next authoritative update
// corrects the guess if the simulation disagrees.
func (c *Controller) TogglePause() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModeLearningActive:
		c.mode = ModeLearningPaused
		return true, nil
	case ModeLearningPaused:
		c.mode = ModeLearningActive
		return false, nil
	default:
		return false, ErrNotLearning
	}
}

// Confirm applies an authoritative learning state reported by the simulation
// and returns the resulting mode. It clears any pending start.
func (c *Controller) Confirm(active, paused bool) Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startPending = false
	switch {
	case active && paused:
		c.mode = ModeLearningPaused
	case active:
		c.mode = ModeLearningActive
	default:
		c.mode = ModeInteractive
	}
	return c.mode
}

// SessionComplete returns the controller to interactive once the simulation
// reports the session finished.
func (c *Controller) SessionComplete() Mode {
	return c.Confirm(false, false)
}

// GuardPrompt reports whether a prompt may be sent right now. Prompts are
// suspended only while learning runs unpaused.
func (c *Controller) GuardPrompt() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeLearningActive {
		return ErrInputSuspended
	}
	return nil
}

// InputEnabled is the boolean form of GuardPrompt for status reporting.
func (c *Controller) InputEnabled() bool {
	return c.GuardPrompt() == nil
}

// Reset drops all session state. Used when the state channel disconnects.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeInteractive
	c.startPending = false
}

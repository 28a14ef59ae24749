package mode

import "testing"

func TestStartWaitsForConfirmation(t *testing.T) {
	c := NewController()

	if err := c.RequestStart(); err != nil {
		t.Fatalf("RequestStart in interactive: %v", err)
	}
	if got := c.Mode(); got != ModeInteractive {
		t.Fatalf("mode flipped to %q before confirmation, want interactive", got)
	}
	if err := c.RequestStart(); err != ErrAlreadyLearning {
		t.Errorf("second RequestStart = %v, want ErrAlreadyLearning", err)
	}

	if got := c.Confirm(true, false); got != ModeLearningActive {
		t.Fatalf("Confirm(active) = %q, want learning_active", got)
	}
	if err := c.RequestStart(); err != ErrAlreadyLearning {
		t.Errorf("RequestStart while active = %v, want ErrAlreadyLearning", err)
	}
}

func TestPauseIsOptimistic(t *testing.T) {
	c := NewController()
	c.Confirm(true, false)

	paused, err := c.TogglePause()
	if err != nil {
		t.Fatalf("TogglePause while active: %v", err)
	}
	if !paused {
		t.Error("TogglePause while active returned pause=false, want true")
	}
	// The flip lands before any simulation round-trip.
	if got := c.Mode(); got != ModeLearningPaused {
		t.Fatalf("mode = %q immediately after toggle, want learning_paused", got)
	}

	resumed, err := c.TogglePause()
	if err != nil {
		t.Fatalf("TogglePause while paused: %v", err)
	}
	if resumed {
		t.Error("TogglePause while paused returned pause=true, want false")
	}
	if got := c.Mode(); got != ModeLearningActive {
		t.Errorf("mode = %q after resume toggle, want learning_active", got)
	}
}

func TestPauseRejectedWhenInteractive(t *testing.T) {
	c := NewController()
	if _, err := c.TogglePause(); err != ErrNotLearning {
		t.Errorf("TogglePause in interactive = %v, want ErrNotLearning", err)
	}
}

func TestConfirmationReconcilesOptimisticGuess(t *testing.T) {
	c := NewController()
	c.Confirm(true, false)

	// Optimistically paused, but the simulation reports it kept running.
	if _, err := c.TogglePause(); err != nil {
		t.Fatal(err)
	}
	if got := c.Confirm(true, false); got != ModeLearningActive {
		t.Errorf("reconciled mode = %q, want learning_active", got)
	}
}

func TestPromptGuard(t *testing.T) {
	c := NewController()
	if err := c.GuardPrompt(); err != nil {
		t.Errorf("prompt guarded in interactive: %v", err)
	}

	c.Confirm(true, false)
	if err := c.GuardPrompt(); err != ErrInputSuspended {
		t.Errorf("GuardPrompt while learning = %v, want ErrInputSuspended", err)
	}
	if c.InputEnabled() {
		t.Error("InputEnabled true while learning runs unpaused")
	}

	// Pausing re-opens the prompt.
	if _, err := c.TogglePause(); err != nil {
		t.Fatal(err)
	}
	if !c.InputEnabled() {
		t.Error("InputEnabled false while paused, want prompts allowed")
	}
}

func TestStopValidation(t *testing.T) {
	c := NewController()
	if err := c.RequestStop(); err != ErrNotLearning {
		t.Errorf("RequestStop with no session = %v, want ErrNotLearning", err)
	}

	if err := c.RequestStart(); err != nil {
		t.Fatal(err)
	}
	// A pending (unconfirmed) start is still stoppable.
	if err := c.RequestStop(); err != nil {
		t.Errorf("RequestStop with pending start: %v", err)
	}

	c.Confirm(true, false)
	if err := c.RequestStop(); err != nil {
		t.Errorf("RequestStop while active: %v", err)
	}
}

func TestSessionCompleteReturnsToInteractive(t *testing.T) {
	c := NewController()
	c.Confirm(true, true)
	if got := c.Mode(); got != ModeLearningPaused {
		t.Fatalf("mode = %q, want learning_paused", got)
	}

	if got := c.SessionComplete(); got != ModeInteractive {
		t.Errorf("SessionComplete = %q, want interactive", got)
	}
	if err := c.RequestStart(); err != nil {
		t.Errorf("RequestStart after completion: %v", err)
	}
}

func TestResetOnDisconnect(t *testing.T) {
	c := NewController()
	if err := c.RequestStart(); err != nil {
		t.Fatal(err)
	}
	c.Confirm(true, false)

	c.Reset()

	if got := c.Mode(); got != ModeInteractive {
		t.Errorf("mode after reset = %q, want interactive", got)
	}
	if err := c.RequestStart(); err != nil {
		t.Errorf("RequestStart after reset: %v", err)
	}
}

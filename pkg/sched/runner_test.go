package sched

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryDeliversTicks(t *testing.T) {
	var ticks atomic.Int64

	task := Every(5*time.Millisecond, func(time.Time) {
		ticks.Add(1)
	})
	defer task.Stop()

	deadline := time.After(2 * time.Second)
	for ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d ticks before deadline, want >= 3", ticks.Load())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestStopHaltsTicks(t *testing.T) {
	var ticks atomic.Int64

	task := Every(time.Millisecond, func(time.Time) {
		ticks.Add(1)
	})

	time.Sleep(20 * time.Millisecond)
	task.Stop()

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)

	if got := ticks.Load(); got != after {
		t.Errorf("ticks after Stop = %d, want %d (no further ticks)", got, after)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	task := Every(time.Millisecond, func(time.Time) {})

	task.Stop()
	task.Stop() // must not panic or deadlock
}

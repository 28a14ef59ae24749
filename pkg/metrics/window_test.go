package metrics

import (
	"testing"
	"time"
)

func TestWindowCapacityBound(t *testing.T) {
	store := NewStore(50)
	base := time.Now()

	for i := 0; i < 120; i++ {
		store.Record(MetricComplexity, float64(i), base.Add(time.Duration(i)*time.Second))
	}

	if got := store.Len(MetricComplexity); got != 50 {
		t.Errorf("Len = %d, want 50", got)
	}

	window := store.Window(MetricComplexity)
	if len(window) != 50 {
		t.Fatalf("Window length = %d, want 50", len(window))
	}
	if window[0].Value != 70 {
		t.Errorf("oldest retained value = %v, want 70", window[0].Value)
	}
	if window[49].Value != 119 {
		t.Errorf("newest retained value = %v, want 119", window[49].Value)
	}
}

func TestWindowTimestampsNonDecreasing(t *testing.T) {
	store := NewStore(10)
	base := time.Now()

	// Third reading arrives with an earlier timestamp than the second.
	store.Record(MetricStability, 1, base)
	store.Record(MetricStability, 2, base.Add(2*time.Second))
	store.Record(MetricStability, 3, base.Add(1*time.Second))
	store.Record(MetricStability, 4, base.Add(3*time.Second))

	window := store.Window(MetricStability)
	for i := 1; i < len(window); i++ {
		if window[i].At.Before(window[i-1].At) {
			t.Errorf("timestamps decrease at index %d: %v < %v", i, window[i].At, window[i-1].At)
		}
	}
}

func TestWindowLazySeriesCreation(t *testing.T) {
	store := NewStore(5)

	if got := store.Len("entropy_flux"); got != 0 {
		t.Fatalf("Len before record = %d, want 0", got)
	}

	store.Record("entropy_flux", 0.42, time.Now())

	if got := store.Len("entropy_flux"); got != 1 {
		t.Errorf("Len after record = %d, want 1", got)
	}

	names := store.Names()
	found := false
	for _, n := range names {
		if n == "entropy_flux" {
			found = true
		}
	}
	if !found {
		t.Errorf("Names() = %v, want to contain entropy_flux", names)
	}
}

func TestWindowCopyIsolation(t *testing.T) {
	store := NewStore(5)
	store.Record(MetricComplexity, 10, time.Now())

	window := store.Window(MetricComplexity)
	window[0].Value = 999

	if latest, _ := store.Latest(MetricComplexity); latest.Value != 10 {
		t.Errorf("store mutated through returned window: latest = %v, want 10", latest.Value)
	}
}

func TestWindowReset(t *testing.T) {
	store := NewStore(5)
	store.Record(MetricComplexity, 1, time.Now())
	store.Record(MetricStructures, 2, time.Now())

	store.Reset()

	if got := store.Len(MetricComplexity); got != 0 {
		t.Errorf("Len after reset = %d, want 0", got)
	}
	if names := store.Names(); len(names) != 0 {
		t.Errorf("Names after reset = %v, want empty", names)
	}
}

func TestWindowDefaultCapacity(t *testing.T) {
	store := NewStore(0)
	if got := store.WindowSize(); got != DefaultWindowSize {
		t.Errorf("WindowSize = %d, want %d", got, DefaultWindowSize)
	}
}

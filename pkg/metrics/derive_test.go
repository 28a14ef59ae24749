package metrics

import (
	"math"
	"testing"
	"time"
)

func recordSeries(store *Store, name string, values ...float64) {
	base := time.Unix(1700000000, 0)
	for i, v := range values {
		store.Record(name, v, base.Add(time.Duration(i)*time.Second))
	}
}

func TestDeriveNegentropy(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "no samples", values: nil, want: 0},
		{name: "single sample", values: []float64{5}, want: 0},
		{name: "growth", values: []float64{2, 4}, want: 1.0},
		{name: "decline clamps to zero", values: []float64{4, 2}, want: 0},
		{name: "sub-unit previous uses divisor one", values: []float64{0.5, 2}, want: 1.5},
		{name: "flat", values: []float64{7, 7}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(50)
			recordSeries(store, MetricComplexity, tt.values...)

			got := store.Derive(DerivedNegentropy)
			if math.Abs(got.Value-tt.want) > 1e-9 {
				t.Errorf("Derive(negentropy).Value = %v, want %v", got.Value, tt.want)
			}
		})
	}
}

// Three identical complexity readings mean no growth: negentropy stays zero.
func TestDeriveNoGrowthScenario(t *testing.T) {
	store := NewStore(50)
	recordSeries(store, MetricComplexity, 2, 2, 2)

	if got := store.Derive(DerivedNegentropy).Value; got != 0 {
		t.Errorf("Derive(negentropy).Value = %v, want 0", got)
	}
}

func TestDeriveFeedback(t *testing.T) {
	t.Run("insufficient samples", func(t *testing.T) {
		store := NewStore(50)
		recordSeries(store, MetricComplexity, 2, 3)

		if got := store.Derive(DerivedFeedback).Value; got != 0 {
			t.Errorf("Derive(feedback).Value = %v, want 0", got)
		}
	})

	t.Run("blends trend and adaptation ratio", func(t *testing.T) {
		store := NewStore(50)
		recordSeries(store, MetricComplexity, 2, 3, 4)
		recordSeries(store, MetricAdaptations, 8)
		recordSeries(store, MetricStructures, 4)

		// trend = (4-2)/2 = 1.0, ratio = 8/4 = 2.0 -> 0.6*1.0 + 0.4*2.0
		want := 1.4
		got := store.Derive(DerivedFeedback).Value
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Derive(feedback).Value = %v, want %v", got, want)
		}
	})

	t.Run("missing population uses divisor one", func(t *testing.T) {
		store := NewStore(50)
		recordSeries(store, MetricComplexity, 2, 3, 4)
		recordSeries(store, MetricAdaptations, 3)

		// trend = 1.0, ratio = 3/1
		want := 0.6 + 0.4*3
		got := store.Derive(DerivedFeedback).Value
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Derive(feedback).Value = %v, want %v", got, want)
		}
	})
}

func TestDeriveResilience(t *testing.T) {
	t.Run("insufficient samples", func(t *testing.T) {
		store := NewStore(50)
		recordSeries(store, MetricStability, 9, 9.1, 9.2, 9.15)

		if got := store.Derive(DerivedResilience).Value; got != 0 {
			t.Errorf("Derive(resilience).Value = %v, want 0", got)
		}
	})

	t.Run("steady high stability", func(t *testing.T) {
		store := NewStore(50)
		recordSeries(store, MetricStability, 9.0, 9.1, 9.2, 9.15, 9.2)

		// mean 9.13, population stddev ~0.0748, normalized ~0.0082:
		// (1-0.0082) * 0.92 ~= 0.9125
		got := store.Derive(DerivedResilience).Value
		if math.Abs(got-0.9125) > 1e-3 {
			t.Errorf("Derive(resilience).Value = %v, want ~0.9125", got)
		}
	})

	t.Run("zero mean collapses to zero", func(t *testing.T) {
		store := NewStore(50)
		recordSeries(store, MetricStability, 0, 0, 0, 0, 0)

		if got := store.Derive(DerivedResilience).Value; got != 0 {
			t.Errorf("Derive(resilience).Value = %v, want 0", got)
		}
	})
}

func TestDerivePhase(t *testing.T) {
	tests := []struct {
		name       string
		complexity []float64
		structures []float64
		want       string
	}{
		{name: "no data", want: PhaseNone},
		{name: "zeros stay none", complexity: []float64{0}, structures: []float64{0}, want: PhaseNone},
		{name: "nucleation", complexity: []float64{1}, want: "nucleation"},
		{name: "bonding", complexity: []float64{6}, structures: []float64{2}, want: "bonding"},
		{name: "autocatalytic", complexity: []float64{25}, structures: []float64{12}, want: "autocatalytic"},
		{name: "emergent", complexity: []float64{60}, structures: []float64{35}, want: "emergent"},
		{name: "first rule wins", complexity: []float64{80}, structures: []float64{40}, want: "emergent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(50)
			recordSeries(store, MetricComplexity, tt.complexity...)
			recordSeries(store, MetricStructures, tt.structures...)

			if got := store.Derive(DerivedPhase).Label; got != tt.want {
				t.Errorf("Derive(phase).Label = %q, want %q", got, tt.want)
			}
		})
	}
}

// Derive must not mutate the store and must be deterministic over an
// unchanged window.
func TestDeriveIsPureRead(t *testing.T) {
	store := NewStore(50)
	recordSeries(store, MetricComplexity, 2, 3, 4)
	recordSeries(store, MetricStability, 9.0, 9.1, 9.2, 9.15, 9.2)

	lenBefore := store.Len(MetricComplexity)

	first := store.Derive(DerivedResilience)
	second := store.Derive(DerivedResilience)

	if first != second {
		t.Errorf("repeated Derive differs: %+v vs %+v", first, second)
	}
	if got := store.Len(MetricComplexity); got != lenBefore {
		t.Errorf("Derive mutated store: Len = %d, want %d", got, lenBefore)
	}
}

func TestDeriveUnknownName(t *testing.T) {
	store := NewStore(50)
	recordSeries(store, MetricComplexity, 1, 2, 3)

	got := store.Derive("not_a_metric")
	if got.Value != 0 || got.Label != "" {
		t.Errorf("Derive(unknown) = %+v, want zero value", got)
	}
}

func TestSnapshotIncludesDerivedAndPhase(t *testing.T) {
	store := NewStore(50)
	recordSeries(store, MetricComplexity, 25, 26, 27)
	recordSeries(store, MetricStructures, 12)

	snap := store.Snapshot()

	if len(snap.Windows[MetricComplexity]) != 3 {
		t.Errorf("snapshot complexity window length = %d, want 3", len(snap.Windows[MetricComplexity]))
	}
	if snap.Phase != "autocatalytic" {
		t.Errorf("snapshot phase = %q, want autocatalytic", snap.Phase)
	}
	if len(snap.Derived) != 3 {
		t.Errorf("snapshot derived count = %d, want 3", len(snap.Derived))
	}
}

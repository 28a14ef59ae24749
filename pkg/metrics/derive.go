package metrics

import (
	"math"
	"time"
)

// Derived metric names computed from the raw windows.
const (
	DerivedNegentropy = "negentropy"
	DerivedFeedback   = "feedback"
	DerivedResilience = "resilience"
	DerivedPhase      = "phase"
)

// PhaseNone is the sentinel label when no phase rule matches.
const PhaseNone = "none"

// Formula constants. The feedback coefficient blends the short complexity
// trend with the adaptation pressure per structure; the split is a tuning
// choice, not a structural one.
const (
	feedbackTrendWeight = 0.6
	feedbackRatioWeight = 0.4
	resilienceWindow    = 5
	resilienceScale     = 10.0
)

// Derived is the result of one derivation. Numeric formulas fill Value;
// phase classification fills Label. At carries the newest contributing
// reading's timestamp.
type Derived struct {
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Label string    `json:"label,omitempty"`
	At    time.Time `json:"at"`
}

// PhaseRule pairs a predicate over the two latest raw readings
// (complexity, structures) with the label it classifies. Rules are
// evaluated in order; the first match wins.
type PhaseRule struct {
	Label string
	Match func(complexity, structures float64) bool
}

// DefaultPhaseRules returns the built-in classification ladder, most
// demanding phase first.
func DefaultPhaseRules() []PhaseRule {
	return []PhaseRule{
		{Label: "emergent", Match: func(c, s float64) bool { return c >= 50 && s >= 30 }},
		{Label: "autocatalytic", Match: func(c, s float64) bool { return c >= 20 && s >= 10 }},
		{Label: "bonding", Match: func(c, s float64) bool { return c >= 5 }},
		{Label: "nucleation", Match: func(c, s float64) bool { return c > 0 || s > 0 }},
	}
}

// Derive computes the named derived metric from the current window contents.
// It is a pure read: repeated calls with an unchanged store return identical
// results, and no state is mutated. Below each formula's minimum sample
// count the zero value is returned (Value 0, or Label "none" for phase).
//
//   - negentropy: rate of change of complexity, (latest-previous)/max(previous,1),
//     clamped to >= 0; needs 2 samples.
//   - feedback: weighted blend of the 3-sample complexity trend and the
//     adaptations/structures ratio; needs 3 complexity samples.
//   - resilience: clamp(1 - normalizedStdDev(last 5 stability), 0, 1) *
//     latest(stability)/10; needs 5 stability samples.
//   - phase: first matching rule over latest (complexity, structures).
func (s *Store) Derive(name string) Derived {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch name {
	case DerivedNegentropy:
		return s.deriveNegentropy()
	case DerivedFeedback:
		return s.deriveFeedback()
	case DerivedResilience:
		return s.deriveResilience()
	case DerivedPhase:
		return s.derivePhase()
	default:
		return Derived{Name: name}
	}
}

// DeriveAll computes every numeric derived metric, for a detector sweep.
// Phase is excluded: labels are not threshold-comparable.
func (s *Store) DeriveAll() []Derived {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []Derived{
		s.deriveNegentropy(),
		s.deriveFeedback(),
		s.deriveResilience(),
	}
}

func (s *Store) deriveNegentropy() Derived {
	d := Derived{Name: DerivedNegentropy}
	window := s.rawLastN(MetricComplexity, 2)
	if len(window) < 2 {
		return d
	}
	previous, latest := window[0], window[1]
	rate := (latest.Value - previous.Value) / math.Max(previous.Value, 1)
	if rate < 0 {
		rate = 0
	}
	d.Value = rate
	d.At = latest.At
	return d
}

func (s *Store) deriveFeedback() Derived {
	d := Derived{Name: DerivedFeedback}
	window := s.rawLastN(MetricComplexity, 3)
	if len(window) < 3 {
		return d
	}
	first, latest := window[0], window[2]
	trend := (latest.Value - first.Value) / math.Max(first.Value, 1)

	ratio := 0.0
	if adapt, ok := s.rawLatest(MetricAdaptations); ok {
		population := 1.0
		if structs, ok := s.rawLatest(MetricStructures); ok {
			population = math.Max(structs.Value, 1)
		}
		ratio = adapt.Value / population
	}

	d.Value = feedbackTrendWeight*trend + feedbackRatioWeight*ratio
	d.At = latest.At
	return d
}

func (s *Store) deriveResilience() Derived {
	d := Derived{Name: DerivedResilience}
	window := s.rawLastN(MetricStability, resilienceWindow)
	if len(window) < resilienceWindow {
		return d
	}

	mean := 0.0
	for _, r := range window {
		mean += r.Value
	}
	mean /= float64(len(window))

	variance := 0.0
	for _, r := range window {
		dev := r.Value - mean
		variance += dev * dev
	}
	variance /= float64(len(window))

	// Zero mean makes dispersion meaningless; treat it as fully dispersed
	// so the resilience contribution collapses to 0.
	normalized := 1.0
	if mean != 0 {
		normalized = math.Sqrt(variance) / math.Abs(mean)
	}

	latest := window[len(window)-1]
	d.Value = clamp01(1-normalized) * (latest.Value / resilienceScale)
	d.At = latest.At
	return d
}

func (s *Store) derivePhase() Derived {
	d := Derived{Name: DerivedPhase, Label: PhaseNone}

	complexity, okC := s.rawLatest(MetricComplexity)
	structures, okS := s.rawLatest(MetricStructures)
	if !okC && !okS {
		return d
	}
	if complexity.At.After(d.At) {
		d.At = complexity.At
	}
	if structures.At.After(d.At) {
		d.At = structures.At
	}

	for _, rule := range s.phases {
		if rule.Match(complexity.Value, structures.Value) {
			d.Label = rule.Label
			return d
		}
	}
	return d
}

// rawLastN and rawLatest assume the caller already holds the store lock.

func (s *Store) rawLastN(name string, n int) []Reading {
	if sr, ok := s.series[name]; ok {
		return sr.lastN(n)
	}
	return nil
}

func (s *Store) rawLatest(name string) (Reading, bool) {
	if sr, ok := s.series[name]; ok {
		return sr.latest()
	}
	return Reading{}, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Snapshot is a point-in-time copy of every window plus the derived values,
// shaped for the REST surface and dashboard pushes.
type Snapshot struct {
	Windows map[string][]Reading `json:"windows"`
	Derived []Derived            `json:"derived"`
	Phase   string               `json:"phase"`
	At      time.Time            `json:"at"`
}

// Snapshot copies the store's current contents. The copy shares nothing
// with the live windows.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	windows := make(map[string][]Reading, len(s.series))
	for name, sr := range s.series {
		windows[name] = sr.lastN(sr.size)
	}

	return Snapshot{
		Windows: windows,
		Derived: []Derived{
			s.deriveNegentropy(),
			s.deriveFeedback(),
			s.deriveResilience(),
		},
		Phase: s.derivePhase().Label,
		At:    time.Now(),
	}
}

package threshold

import (
	"sort"
	"sync"
	"time"
)

// Severity grades how far above its threshold a metric landed.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

var severityOrder = map[Severity]int{
	SeverityCritical: 3,
	SeveritySevere:   2,
	SeverityWarning:  1,
}

// SeverityRank orders severities for sorting and minimum-severity checks;
// unknown severities rank lowest.
func SeverityRank(s Severity) int {
	return severityOrder[s]
}

// Tier maps a value/threshold ratio floor to a severity. Tiers are matched
// highest ratio first.
type Tier struct {
	Ratio    float64
	Severity Severity
}

// DefaultTiers grades crossings at the threshold itself, 1.67x and 2.5x.
func DefaultTiers() []Tier {
	return []Tier{
		{Ratio: 2.5, Severity: SeverityCritical},
		{Ratio: 1.67, Severity: SeveritySevere},
		{Ratio: 1.0, Severity: SeverityWarning},
	}
}

// Crossing is an edge-triggered threshold event: emitted once when a metric
// rises to or above its threshold, then armed again only after the metric
// falls back below it.
type Crossing struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Severity  Severity  `json:"severity"`
	At        time.Time `json:"at"`
}

// Observation is one metric sample handed to the detector.
type Observation struct {
	Metric string
	Value  float64
	At     time.Time
}

type metricState struct {
	active   bool
	observed bool
}

// Detector tracks per-metric threshold state. Metrics without a configured
// threshold are ignored; thresholds must be positive (non-positive entries
// are dropped at construction).
//
// Initial-observation policy: the very first observation of a metric only
// initializes its state. No crossing is emitted even if that first value is
// already above threshold; a crossing requires a rising edge from an
// observed below-threshold state.
type Detector struct {
	mu         sync.Mutex
	thresholds map[string]float64
	tiers      []Tier
	states     map[string]*metricState
}

// NewDetector builds a detector over the given threshold table. Nil tiers
// fall back to DefaultTiers.
func NewDetector(thresholds map[string]float64, tiers []Tier) *Detector {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ratio > sorted[j].Ratio })

	table := make(map[string]float64, len(thresholds))
	for name, v := range thresholds {
		if v > 0 {
			table[name] = v
		}
	}

	return &Detector{
		thresholds: table,
		tiers:      sorted,
		states:     make(map[string]*metricState),
	}
}

// Observe feeds one sample through the state machine. It returns the
// crossing and true only on a rising edge.
func (d *Detector) Observe(metric string, value float64, at time.Time) (Crossing, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.observe(metric, value, at)
}

// Sweep observes a batch of samples and returns the crossings they produced,
// ordered by severity (critical first) then metric name so downstream
// consumers see a stable, most-urgent-first sequence.
func (d *Detector) Sweep(observations []Observation) []Crossing {
	d.mu.Lock()
	defer d.mu.Unlock()

	var crossings []Crossing
	for _, obs := range observations {
		if c, ok := d.observe(obs.Metric, obs.Value, obs.At); ok {
			crossings = append(crossings, c)
		}
	}

	sort.Slice(crossings, func(i, j int) bool {
		if severityOrder[crossings[i].Severity] != severityOrder[crossings[j].Severity] {
			return severityOrder[crossings[i].Severity] > severityOrder[crossings[j].Severity]
		}
		return crossings[i].Metric < crossings[j].Metric
	})
	return crossings
}

func (d *Detector) observe(metric string, value float64, at time.Time) (Crossing, bool) {
	limit, configured := d.thresholds[metric]
	if !configured {
		return Crossing{}, false
	}

	st, ok := d.states[metric]
	if !ok {
		st = &metricState{}
		d.states[metric] = st
	}

	above := value >= limit

	if !st.observed {
		// First sample establishes the baseline silently.
		st.observed = true
		st.active = above
		return Crossing{}, false
	}

	switch {
	case above && !st.active:
		st.active = true
		return Crossing{
			Metric:    metric,
			Value:     value,
			Threshold: limit,
			Severity:  d.severityFor(value, limit),
			At:        at,
		}, true
	case !above && st.active:
		st.active = false
	}
	return Crossing{}, false
}

func (d *Detector) severityFor(value, limit float64) Severity {
	ratio := value / limit
	for _, tier := range d.tiers {
		if ratio >= tier.Ratio {
			return tier.Severity
		}
	}
	// value >= limit always matches the 1.0 tier with default tiers; a
	// custom table without a 1.0 floor still grades as warning.
	return SeverityWarning
}

// Active reports whether a metric is currently at or above its threshold.
func (d *Detector) Active(metric string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.states[metric]; ok {
		return st.active
	}
	return false
}

// Thresholds returns a copy of the configured threshold table.
func (d *Detector) Thresholds() map[string]float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]float64, len(d.thresholds))
	for name, v := range d.thresholds {
		out[name] = v
	}
	return out
}

// Reset forgets all per-metric state. After a reset the next observation of
// each metric is treated as a first observation again.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states = make(map[string]*metricState)
}

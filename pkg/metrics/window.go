package metrics

import (
	"sort"
	"sync"
	"time"
)

// DefaultWindowSize is the per-metric sliding window capacity.
const DefaultWindowSize = 50

// Raw metric names the simulation is known to emit. Unknown names are
// accepted too; series are created lazily on first Record.
const (
	MetricComplexity  = "complexity"
	MetricStructures  = "structures"
	MetricAdaptations = "adaptations"
	MetricStability   = "stability"
)

// Reading is one timestamped scalar observation of a raw metric.
type Reading struct {
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// Series is a fixed-capacity FIFO window over one metric's readings.
// Appending beyond capacity evicts the oldest reading. Timestamps are kept
// non-decreasing: a reading older than the current tail is clamped to the
// tail's timestamp instead of being rejected.
type Series struct {
	name string
	data []Reading // ring storage
	head int       // index of the oldest reading
	size int
}

func newSeries(name string, capacity int) *Series {
	return &Series{
		name: name,
		data: make([]Reading, capacity),
	}
}

func (s *Series) append(r Reading) {
	if last, ok := s.latest(); ok && r.At.Before(last.At) {
		r.At = last.At
	}

	if s.size < len(s.data) {
		s.data[(s.head+s.size)%len(s.data)] = r
		s.size++
		return
	}

	// Full: overwrite the oldest slot and advance the head.
	s.data[s.head] = r
	s.head = (s.head + 1) % len(s.data)
}

func (s *Series) latest() (Reading, bool) {
	if s.size == 0 {
		return Reading{}, false
	}
	return s.data[(s.head+s.size-1)%len(s.data)], true
}

// lastN returns up to n readings ordered oldest to newest. The returned
// slice is a copy; callers may not reach the ring storage.
func (s *Series) lastN(n int) []Reading {
	if n > s.size {
		n = s.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]Reading, n)
	start := s.size - n
	for i := 0; i < n; i++ {
		out[i] = s.data[(s.head+start+i)%len(s.data)]
	}
	return out
}

// Store owns every metric window. It is the only writer of series data;
// REST handlers and the dashboard fanout read concurrently, so access is
// guarded here rather than in each Series.
type Store struct {
	mu     sync.RWMutex
	window int
	series map[string]*Series
	phases []PhaseRule
}

// NewStore creates a store with the given window capacity per metric.
// A non-positive capacity falls back to DefaultWindowSize.
func NewStore(windowSize int) *Store {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Store{
		window: windowSize,
		series: make(map[string]*Series),
		phases: DefaultPhaseRules(),
	}
}

// SetPhaseRules replaces the ordered phase classification rules.
func (s *Store) SetPhaseRules(rules []PhaseRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases = rules
}

// Record appends a reading to the named series, creating the series on
// first use. It never fails; capacity overflow evicts the oldest reading.
func (s *Store) Record(name string, value float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.series[name]
	if !ok {
		sr = newSeries(name, s.window)
		s.series[name] = sr
	}
	sr.append(Reading{Value: value, At: at})
}

// Len reports the number of readings currently held for a metric.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sr, ok := s.series[name]; ok {
		return sr.size
	}
	return 0
}

// WindowSize reports the configured per-metric capacity.
func (s *Store) WindowSize() int {
	return s.window
}

// Latest returns the newest reading for a metric, if any.
func (s *Store) Latest(name string) (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sr, ok := s.series[name]; ok {
		return sr.latest()
	}
	return Reading{}, false
}

// Window returns a copy of the metric's current readings, oldest first.
func (s *Store) Window(name string) []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sr, ok := s.series[name]; ok {
		return sr.lastN(sr.size)
	}
	return nil
}

// Names returns the metric names currently tracked, sorted for stable output.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.series))
	for name := range s.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears every series. Used when the state channel drops: monitored
// entities do not survive a disconnect.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = make(map[string]*Series)
}


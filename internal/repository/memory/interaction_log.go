package memory

import (
	"sync"

	"emergence-monitor-be/internal/model"
)

// InteractionLog is a bounded in-memory record of prompt/response exchanges.
// Once full, the oldest entry is evicted. Entries are ordered oldest first.
type InteractionLog struct {
	mu      sync.RWMutex
	entries []model.Interaction
	cap     int
}

func NewInteractionLog(capacity int) *InteractionLog {
	if capacity <= 0 {
		capacity = 100
	}
	return &InteractionLog{
		entries: make([]model.Interaction, 0, capacity),
		cap:     capacity,
	}
}

func (r *InteractionLog) Append(entry model.Interaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= r.cap {
		// Shift rather than reslice so the backing array does not grow
		// without bound.
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:len(r.entries)-1]
	}
	r.entries = append(r.entries, entry)
}

// List returns a copy of the log, oldest first.
func (r *InteractionLog) List() []model.Interaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Interaction, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *InteractionLog) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *InteractionLog) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
}

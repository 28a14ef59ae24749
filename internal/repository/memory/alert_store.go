package memory

import (
	"sort"
	"time"

	"emergence-monitor-be/internal/model"
	"emergence-monitor-be/pkg/threshold"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// AlertStore keeps recent alerts in memory with a TTL. Expired alerts drop
// out on their own; nothing survives a process restart, which is fine for a
// live monitor.
type AlertStore struct {
	cache *cache.Cache
}

func NewAlertStore(ttl time.Duration) *AlertStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	// Purge at a fraction of the TTL so the Active list never trails far
	// behind expiry.
	c := cache.New(ttl, ttl/3)
	return &AlertStore{
		cache: c,
	}
}

func (r *AlertStore) Record(alert *model.Alert) {
	r.cache.Set(alert.ID.String(), alert, cache.DefaultExpiration)
}

// Has reports whether an unexpired alert with this id is already stored.
// The fan-in path uses it to drop re-deliveries and our own alerts echoed
// back off the bus.
func (r *AlertStore) Has(id uuid.UUID) bool {
	_, found := r.cache.Get(id.String())
	return found
}

// Active returns unexpired alerts, most severe first, newest first within a
// severity.
func (r *AlertStore) Active() []model.Alert {
	items := r.cache.Items()
	alerts := make([]model.Alert, 0, len(items))
	for _, item := range items {
		if alert, ok := item.Object.(*model.Alert); ok {
			alerts = append(alerts, *alert)
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		ri, rj := threshold.SeverityRank(threshold.Severity(alerts[i].Severity)), threshold.SeverityRank(threshold.Severity(alerts[j].Severity))
		if ri != rj {
			return ri > rj
		}
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})
	return alerts
}

func (r *AlertStore) Count() int {
	return r.cache.ItemCount()
}

func (r *AlertStore) Clear() {
	r.cache.Flush()
}

// FILE: internal/model/alert_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Alert is one threshold crossing, either detected locally from derived
// metrics or forwarded by the simulation. Alerts live in memory with a TTL;
// nothing is persisted across restarts.
type Alert struct {
	ID          uuid.UUID `json:"id"`
	Metric      string    `json:"metric"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
	Severity    string    `json:"severity"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

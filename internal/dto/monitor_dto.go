// FILE: internal/dto/monitor_dto.go
package dto

import (
	"emergence-monitor-be/internal/model"

	"emergence-monitor-be/pkg/channel"
	"emergence-monitor-be/pkg/graph"
	"emergence-monitor-be/pkg/metrics"
)

// StatusResponse is the top-level dashboard status surface.
type StatusResponse struct {
	Channel        channel.Status     `json:"channel"`
	Mode           string             `json:"mode"`
	InputEnabled   bool               `json:"input_enabled"`
	Phase          string             `json:"phase"`
	EmotionalState map[string]float64 `json:"emotional_state,omitempty"`
	Progress       *ProgressUpdate    `json:"progress,omitempty"`
	ActiveAlerts   int                `json:"active_alerts"`
	Dashboards     int                `json:"dashboards"`
}

// GraphResponse carries the last rendered frame. Frame is null until the
// first snapshot arrives.
type GraphResponse struct {
	Frame         *graph.Frame `json:"frame"`
	RetainedNodes int          `json:"retained_nodes"`
}

// MetricsPush is the per-update metrics payload for dashboards: latest raw
// values plus the derived set. Full windows stay on the REST surface; pushing
// them at update rate would dwarf every other message on the socket.
type MetricsPush struct {
	Values  map[string]float64 `json:"values"`
	Derived []metrics.Derived  `json:"derived"`
	Phase   string             `json:"phase"`
}

// ProgressUpdate mirrors the simulation's learning progress.
type ProgressUpdate struct {
	Step       int     `json:"step"`
	TotalSteps int     `json:"total_steps"`
	Percent    float64 `json:"percent"`
}

// ModePush tells dashboards which mode to display.
type ModePush struct {
	Mode         string `json:"mode"`
	InputEnabled bool   `json:"input_enabled"`
}

// LinkStatusPush tells dashboards whether the simulation link is up.
type LinkStatusPush struct {
	Connected bool   `json:"connected"`
	URL       string `json:"url"`
}

// AlertsResponse pairs the active alerts with the threshold table they were
// graded against.
type AlertsResponse struct {
	Active     []model.Alert      `json:"active"`
	Thresholds map[string]float64 `json:"thresholds"`
}

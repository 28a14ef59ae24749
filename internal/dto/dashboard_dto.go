// FILE: internal/dto/dashboard_dto.go
package dto

// DashboardEnvelope is the frame every dashboard websocket message travels
// in, mirroring the simulation-side envelope shape so one client codec
// serves both links.
type DashboardEnvelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// DashboardAction is an inbound message from a dashboard: currently node
// drag interactions only. Zoom and pan stay client-side.
type DashboardAction struct {
	Action string  `json:"action" validate:"required,oneof=pin_node release_node"`
	Key    string  `json:"key" validate:"required,max=512"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

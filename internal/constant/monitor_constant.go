package constant

// Watermill topic carrying every dashboard-bound envelope. The kind metadata
// key distinguishes frames from alerts etc. without one topic per kind.
const (
	TopicDashboardEvents = "DASHBOARD_EVENTS"
	MetadataKindKey      = "kind"
)

// Envelope kinds pushed to dashboard websockets.
const (
	KindFrame          = "frame"
	KindMetrics        = "metrics"
	KindAlert          = "alert"
	KindInteraction    = "interaction"
	KindProgress       = "progress"
	KindMode           = "mode"
	KindStatus         = "status"
	KindEmotionalState = "emotional_state"
)

// Dashboard-inbound websocket actions.
const (
	ActionPinNode     = "pin_node"
	ActionReleaseNode = "release_node"
)

// Alert sources.
const (
	AlertSourceLocal     = "monitor"
	AlertSourceForwarded = "simulation"
)

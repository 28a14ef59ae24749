// FILE: internal/dto/command_dto.go
package dto

// StartLearningRequest starts an autonomous learning session.
type StartLearningRequest struct {
	Steps   int `json:"steps" validate:"required,gt=0,lte=100000"`
	DelayMs int `json:"delay_ms" validate:"gte=0,lte=600000"`
}

// PromptRequest sends free-text input to the simulation.
type PromptRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
}

// ParameterRequest adjusts one named simulation parameter.
type ParameterRequest struct {
	Category string  `json:"category" validate:"required,max=128"`
	Name     string  `json:"name" validate:"required,max=128"`
	Value    float64 `json:"value"`
}

// LoadSessionRequest restores a saved simulation session.
type LoadSessionRequest struct {
	SessionID string `json:"session_id" validate:"required,max=256"`
}

// CommandAccepted acknowledges that a command was forwarded. Mode reflects
// the display mode at the time of acceptance, which for start/stop is still
// the pre-command mode until the simulation confirms.
type CommandAccepted struct {
	Command string `json:"command"`
	Mode    string `json:"mode"`
}

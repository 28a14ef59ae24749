// FILE: internal/model/interaction_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Interaction is one prompt/response exchange with the simulation. The log
// keeps a bounded number of these, newest last.
type Interaction struct {
	ID            uuid.UUID `json:"id"`
	Prompt        string    `json:"prompt"`
	Response      string    `json:"response"`
	UserGenerated bool      `json:"user_generated"`
	Timestamp     time.Time `json:"timestamp"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"rest-tracker/internal/escalation"
)

// Outcome is how a round ended.
type Outcome string

const (
	OutcomeRunning      Outcome = "running"
	OutcomeAcknowledged Outcome = "acknowledged"
	OutcomeFailed       Outcome = "failed"
)

// Round summarizes one clock lifecycle.
type Round struct {
	ID         uuid.UUID        `json:"id"`
	Number     int              `json:"number"`
	Budget     time.Duration    `json:"budget"`
	StartedAt  time.Time        `json:"started_at"`
	EndedAt    *time.Time       `json:"ended_at,omitempty"`
	Outcome    Outcome          `json:"outcome"`
	FinalStage escalation.Stage `json:"final_stage"`
}

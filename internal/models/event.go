package models

import (
	"time"

	"github.com/google/uuid"

	"rest-tracker/internal/escalation"
)

// EventKind names what happened in a round.
type EventKind string

const (
	EventRoundStarted      EventKind = "round_started"
	EventStageChanged      EventKind = "stage_changed"
	EventRoundAcknowledged EventKind = "round_acknowledged"
	EventRoundFailed       EventKind = "round_failed"
)

// Terminal reports whether the event ends its round.
func (k EventKind) Terminal() bool {
	return k == EventRoundAcknowledged || k == EventRoundFailed
}

// Event is one observation emitted by the supervisor.
type Event struct {
	ID       uuid.UUID        `json:"id"`
	RoundID  uuid.UUID        `json:"round_id"`
	Round    int              `json:"round"`
	Rounds   int              `json:"rounds"`
	Kind     EventKind        `json:"kind"`
	Stage    escalation.Stage `json:"stage"`
	Deadline *time.Time       `json:"deadline,omitempty"` // nil once the round failed or was acknowledged
	At       time.Time        `json:"at"`
}

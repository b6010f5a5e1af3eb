package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Outcome is the terminal state of one booking between a pair
type Outcome string

const (
	OutcomeCompletedNormal      Outcome = "COMPLETED_NORMAL"
	OutcomeRejected             Outcome = "REJECTED"
	OutcomeCancelledByRequester Outcome = "CANCELLED_BY_REQUESTER"
	OutcomeCancelledByTarget    Outcome = "CANCELLED_BY_TARGET"
	OutcomePanicEnded           Outcome = "PANIC_ENDED"
)

// ParseOutcome validates a wire outcome
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomeCompletedNormal, OutcomeRejected, OutcomeCancelledByRequester,
		OutcomeCancelledByTarget, OutcomePanicEnded:
		return o, nil
	}
	return "", ErrUnknownOutcome
}

// CooldownState is the escalation ladder for a requester->target pair.
// Transitions only move right: NONE -> COOLDOWN_7D -> COOLDOWN_21D ->
// PERMANENT. Only an audited staff release moves back.
type CooldownState string

const (
	StateNone       CooldownState = "NONE"
	StateCooldown7d CooldownState = "COOLDOWN_7D"
	StateCooldown21 CooldownState = "COOLDOWN_21D"
	StatePermanent  CooldownState = "PERMANENT"
)

const (
	firstCooldown  = 7 * 24 * time.Hour
	secondCooldown = 21 * 24 * time.Hour

	// outcomes kept per pair, newest last
	outcomeHistoryLimit = 5
)

// StateForRejections maps a rejection count to the ladder position
func StateForRejections(count int) CooldownState {
	switch {
	case count <= 0:
		return StateNone
	case count == 1:
		return StateCooldown7d
	case count == 2:
		return StateCooldown21
	default:
		return StatePermanent
	}
}

// CooldownDuration returns the cooldown for a rejection count, or 0 when
// the state is NONE or PERMANENT (permanent blocks have no expiry).
func CooldownDuration(count int) time.Duration {
	switch StateForRejections(count) {
	case StateCooldown7d:
		return firstCooldown
	case StateCooldown21:
		return secondCooldown
	default:
		return 0
	}
}

// BookingAttemptHistory is the per ordered pair requester->target record
type BookingAttemptHistory struct {
	RequesterID        uuid.UUID      `db:"requester_id" json:"requester_id"`
	TargetID           uuid.UUID      `db:"target_id" json:"target_id"`
	TotalAttempts      int            `db:"total_attempts" json:"total_attempts"`
	RejectionCount     int            `db:"rejection_count" json:"rejection_count"`
	CompletedMeetings  int            `db:"completed_meetings" json:"completed_meetings"`
	CooldownActive     bool           `db:"cooldown_active" json:"cooldown_active"`
	CooldownUntil      sql.NullTime   `db:"cooldown_until" json:"cooldown_until,omitempty"`
	PermanentlyBlocked bool           `db:"permanently_blocked" json:"permanently_blocked"`
	MeetingOutcomes    pq.StringArray `db:"meeting_outcomes" json:"meeting_outcomes"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// State derives the ladder position from the stored counters
func (h *BookingAttemptHistory) State() CooldownState {
	if h.PermanentlyBlocked {
		return StatePermanent
	}
	return StateForRejections(h.RejectionCount)
}

// CooldownDecision is the gate answer consumed by the booking system
type CooldownDecision struct {
	CanBook            bool         `json:"can_book"`
	Reason             string       `json:"reason,omitempty"`
	CooldownUntil      sql.NullTime `json:"cooldown_until,omitempty"`
	PermanentlyBlocked bool         `json:"permanently_blocked"`
}

// Gate denial reasons, stable strings for the booking collaborator
const (
	ReasonPermanentBlock = "permanently_blocked"
	ReasonCooldownActive = "cooldown_active"
)

// OutcomeResult reports one recorded outcome. Applied is false when the
// same booking outcome was already recorded (redelivery).
type OutcomeResult struct {
	History *BookingAttemptHistory `json:"history"`
	Applied bool                   `json:"applied"`
}

package ingest

import (
	"github.com/google/uuid"
)

// Topics carrying collaborator events into the scoring engine. Payloads
// mirror the HTTP request bodies so producers can reuse one schema for
// both transports.
const (
	TopicRiskEvents      = "trust.risk-events"
	TopicBookingOutcomes = "trust.booking-outcomes"
	TopicSwipeActions    = "trust.swipe-actions"
	TopicMeetingFeedback = "trust.meeting-feedback"
	TopicAccountEvents   = "trust.account-events"
)

// Topics lists every topic the worker subscribes to.
func Topics() []string {
	return []string{
		TopicRiskEvents,
		TopicBookingOutcomes,
		TopicSwipeActions,
		TopicMeetingFeedback,
		TopicAccountEvents,
	}
}

// RiskEventMessage mirrors risk.ApplyEventRequest
type RiskEventMessage struct {
	UserID        uuid.UUID         `json:"user_id"`
	Event         string            `json:"event"`
	RelatedUserID *uuid.UUID        `json:"related_user_id,omitempty"`
	ContextRef    string            `json:"context_ref"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// BookingOutcomeMessage mirrors booking.RecordOutcomeRequest
type BookingOutcomeMessage struct {
	RequesterID uuid.UUID  `json:"requester_id"`
	TargetID    uuid.UUID  `json:"target_id"`
	Outcome     string     `json:"outcome"`
	BookingID   string     `json:"booking_id"`
	PanicBy     *uuid.UUID `json:"panic_by,omitempty"`
}

// SwipeActionMessage mirrors swipe.TrackRequest
type SwipeActionMessage struct {
	SwiperID           uuid.UUID `json:"swiper_id"`
	TargetID           uuid.UUID `json:"target_id"`
	IsRightSwipe       bool      `json:"is_right_swipe"`
	MatchHappened      bool      `json:"match_happened"`
	WasBlockedByTarget bool      `json:"was_blocked_by_target"`
}

// FeedbackMessage mirrors feedback.SubmitRequest
type FeedbackMessage struct {
	GiverID    uuid.UUID `json:"giver_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Positive   bool      `json:"positive"`
	VibeRating int       `json:"vibe_rating,omitempty"`
	ShowedUp   bool      `json:"showed_up"`
	ContextID  string    `json:"context_id"`
	Comment    string    `json:"comment,omitempty"`
}

// AccountEventMessage carries account lifecycle events. Only
// account_created feeds the scoring engine today; other kinds are
// acknowledged and skipped.
type AccountEventMessage struct {
	UserID uuid.UUID `json:"user_id"`
	Event  string    `json:"event"`
}

// EventAccountCreated is the only account event the engine consumes.
const EventAccountCreated = "account_created"

package alert

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a safety alert for the staff dashboard
type Kind string

const (
	KindRiskLevelChange   Kind = "risk_level_change"
	KindCategoryThreshold Kind = "category_threshold_crossed"
	KindMinorContact      Kind = "minor_contact_attempt"
	KindPermanentBlock    Kind = "permanent_booking_block"
	KindPermanentHide     Kind = "permanent_swipe_hide"
	KindMeetingBlocked    Kind = "meeting_location_blocked"
)

// SafetyAlert is one event on the staff alert stream. Delivery is
// best-effort: alerts never block or fail the scoring path that emits them.
type SafetyAlert struct {
	ID            uuid.UUID     `json:"id"`
	Kind          Kind          `json:"kind"`
	UserID        uuid.UUID     `json:"user_id"`
	RelatedUserID uuid.NullUUID `json:"related_user_id,omitempty"`
	RiskLevel     string        `json:"risk_level,omitempty"`
	Detail        string        `json:"detail,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// New builds an alert with id and timestamp filled in
func New(kind Kind, userID uuid.UUID, riskLevel, detail string) SafetyAlert {
	return SafetyAlert{
		ID:        uuid.New(),
		Kind:      kind,
		UserID:    userID,
		RiskLevel: riskLevel,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}

package risk

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	ScoreMin = 0
	ScoreMax = 1000
)

type RiskLevel string

const (
	LevelLow      RiskLevel = "LOW"
	LevelMedium   RiskLevel = "MEDIUM"
	LevelHigh     RiskLevel = "HIGH"
	LevelCritical RiskLevel = "CRITICAL"
)

// LevelForScore derives the risk level from a score. Pure function,
// the only place the band thresholds live.
func LevelForScore(score int) RiskLevel {
	switch {
	case score < 300:
		return LevelLow
	case score < 600:
		return LevelMedium
	case score < 850:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// ClampScore bounds a score to the valid range
func ClampScore(score int) int {
	if score < ScoreMin {
		return ScoreMin
	}
	if score > ScoreMax {
		return ScoreMax
	}
	return score
}

type SafetyCategory string

const (
	CategoryWomanDatingMen SafetyCategory = "woman_dating_men"
	CategoryManDatingWomen SafetyCategory = "man_dating_women"
	CategoryNonbinary      SafetyCategory = "nonbinary"
	CategoryInfluencer     SafetyCategory = "influencer"
	CategoryNewAccount     SafetyCategory = "new_account"
	CategoryStandard       SafetyCategory = "standard"
)

// ValidCategory reports whether the category is one of the closed set
func ValidCategory(c SafetyCategory) bool {
	switch c {
	case CategoryWomanDatingMen, CategoryManDatingWomen, CategoryNonbinary,
		CategoryInfluencer, CategoryNewAccount, CategoryStandard:
		return true
	}
	return false
}

// UserRiskProfile is the durable per-user risk record. Created lazily on
// first event or explicit categorization, never deleted. Only the event
// processor mutates risk_score.
type UserRiskProfile struct {
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	RiskScore      int            `db:"risk_score" json:"risk_score"`
	SafetyCategory SafetyCategory `db:"safety_category" json:"safety_category"`

	Complaints            int `db:"complaints" json:"complaints"`
	FirstMessageBlocks    int `db:"first_message_blocks" json:"first_message_blocks"`
	AppearanceMismatches  int `db:"appearance_mismatches" json:"appearance_mismatches"`
	PanicAlerts           int `db:"panic_alerts" json:"panic_alerts"`
	BookingRejections     int `db:"booking_rejections" json:"booking_rejections"`
	PositiveConfirmations int `db:"positive_confirmations" json:"positive_confirmations"`
	SuccessfulMeetings    int `db:"successful_meetings" json:"successful_meetings"`
	VoluntaryRefunds      int `db:"voluntary_refunds" json:"voluntary_refunds"`
	HighRatings           int `db:"high_ratings" json:"high_ratings"`
	Reverifications       int `db:"reverifications" json:"reverifications"`

	LastIncidentAt sql.NullTime `db:"last_incident_at" json:"last_incident_at,omitempty"`
	LastPositiveAt sql.NullTime `db:"last_positive_at" json:"last_positive_at,omitempty"`
	LastUpdated    time.Time    `db:"last_updated" json:"last_updated"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// Level returns the profile's current risk level
func (p *UserRiskProfile) Level() RiskLevel {
	return LevelForScore(p.RiskScore)
}

// NeutralProfile is the default view for users with no record yet
func NeutralProfile(userID uuid.UUID) *UserRiskProfile {
	now := time.Now()
	return &UserRiskProfile{
		UserID:         userID,
		RiskScore:      ScoreMin,
		SafetyCategory: CategoryStandard,
		LastUpdated:    now,
		CreatedAt:      now,
	}
}

// EventResult reports the outcome of one event application
type EventResult struct {
	PreviousScore int            `json:"previous_score"`
	NewScore      int            `json:"new_score"`
	Level         RiskLevel      `json:"level"`
	Category      SafetyCategory `json:"safety_category"`
	Applied       bool           `json:"applied"`
}

// levelRank orders levels for transition checks
func levelRank(l RiskLevel) int {
	switch l {
	case LevelLow:
		return 0
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	default:
		return 3
	}
}

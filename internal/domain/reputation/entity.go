package reputation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	ScoreMin     = 0
	ScoreMax     = 100
	DefaultScore = 50
)

// Level buckets the 0-100 reputation score
type Level string

const (
	LevelExcellent Level = "EXCELLENT"
	LevelGood      Level = "GOOD"
	LevelNeutral   Level = "NEUTRAL"
	LevelPoor      Level = "POOR"
	LevelCritical  Level = "CRITICAL"
)

func LevelForScore(score int) Level {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 60:
		return LevelGood
	case score >= 40:
		return LevelNeutral
	case score >= 20:
		return LevelPoor
	default:
		return LevelCritical
	}
}

func ClampScore(score int) int {
	if score < ScoreMin {
		return ScoreMin
	}
	if score > ScoreMax {
		return ScoreMax
	}
	return score
}

// UserReputation is the durable per-user record
type UserReputation struct {
	UserID               uuid.UUID `db:"user_id" json:"user_id"`
	ReputationScore      int       `db:"reputation_score" json:"reputation_score"`
	TimelyReplies        int       `db:"timely_replies" json:"timely_replies"`
	QualityConversations int       `db:"quality_conversations" json:"quality_conversations"`
	PositiveFeedback     int       `db:"positive_feedback" json:"positive_feedback"`
	MeetingsAttended     int       `db:"meetings_attended" json:"meetings_attended"`
	VoluntaryRefunds     int       `db:"voluntary_refunds" json:"voluntary_refunds"`
	HarassmentReports    int       `db:"harassment_reports" json:"harassment_reports"`
	NoShows              int       `db:"no_shows" json:"no_shows"`
	AppearanceComplaints int       `db:"appearance_complaints" json:"appearance_complaints"`
	SystemAbuse          int       `db:"system_abuse" json:"system_abuse"`
	ChargebackAbuse      int       `db:"chargeback_abuse" json:"chargeback_abuse"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

func (r *UserReputation) Level() Level {
	return LevelForScore(r.ReputationScore)
}

// NeutralReputation is the record implied for users without one
func NeutralReputation(userID uuid.UUID) *UserReputation {
	return &UserReputation{
		UserID:          userID,
		ReputationScore: DefaultScore,
	}
}

// AdjustmentType splits ranking adjustments into the two directions
type AdjustmentType string

const (
	TypeBoost   AdjustmentType = "BOOST"
	TypeLimiter AdjustmentType = "LIMITER"
)

// AdjustmentLevel grades how strong an adjustment is
type AdjustmentLevel string

const (
	AdjustmentMinor    AdjustmentLevel = "MINOR"
	AdjustmentModerate AdjustmentLevel = "MODERATE"
	AdjustmentMajor    AdjustmentLevel = "MAJOR"
)

// Ranking contexts the multiplier resolver answers for
const (
	ContextDiscovery   = "discovery"
	ContextFeed        = "feed"
	ContextSuggestions = "suggestions"
)

// ReputationAdjustment is one boost/limiter record. At most one row per
// user is active; deactivated rows stay as history.
type ReputationAdjustment struct {
	ID                    uuid.UUID       `db:"id" json:"id"`
	UserID                uuid.UUID       `db:"user_id" json:"user_id"`
	AdjustmentType        AdjustmentType  `db:"adjustment_type" json:"adjustment_type"`
	Level                 AdjustmentLevel `db:"level" json:"level"`
	DiscoveryMultiplier   float64         `db:"discovery_multiplier" json:"discovery_multiplier"`
	FeedMultiplier        float64         `db:"feed_multiplier" json:"feed_multiplier"`
	SuggestionsMultiplier float64         `db:"suggestions_multiplier" json:"suggestions_multiplier"`
	TriggerScore          int             `db:"trigger_score" json:"trigger_score"`
	Active                bool            `db:"active" json:"active"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	DeactivatedAt         sql.NullTime    `db:"deactivated_at" json:"deactivated_at,omitempty"`
}

// MultiplierFor returns the adjustment's multiplier for a context,
// neutral for contexts it does not know.
func (a *ReputationAdjustment) MultiplierFor(context string) float64 {
	switch context {
	case ContextDiscovery:
		return a.DiscoveryMultiplier
	case ContextFeed:
		return a.FeedMultiplier
	case ContextSuggestions:
		return a.SuggestionsMultiplier
	default:
		return 1.0
	}
}

// AdjustmentForLevel returns the template adjustment a reputation level
// mandates, nil for NEUTRAL.
func AdjustmentForLevel(level Level, triggerScore int) *ReputationAdjustment {
	switch level {
	case LevelExcellent:
		return &ReputationAdjustment{
			AdjustmentType:        TypeBoost,
			Level:                 AdjustmentMajor,
			DiscoveryMultiplier:   1.5,
			FeedMultiplier:        1.4,
			SuggestionsMultiplier: 1.6,
			TriggerScore:          triggerScore,
		}
	case LevelGood:
		return &ReputationAdjustment{
			AdjustmentType:        TypeBoost,
			Level:                 AdjustmentModerate,
			DiscoveryMultiplier:   1.25,
			FeedMultiplier:        1.2,
			SuggestionsMultiplier: 1.3,
			TriggerScore:          triggerScore,
		}
	case LevelPoor:
		return &ReputationAdjustment{
			AdjustmentType:        TypeLimiter,
			Level:                 AdjustmentModerate,
			DiscoveryMultiplier:   0.8,
			FeedMultiplier:        0.85,
			SuggestionsMultiplier: 0.75,
			TriggerScore:          triggerScore,
		}
	case LevelCritical:
		return &ReputationAdjustment{
			AdjustmentType:        TypeLimiter,
			Level:                 AdjustmentMajor,
			DiscoveryMultiplier:   0.5,
			FeedMultiplier:        0.6,
			SuggestionsMultiplier: 0.4,
			TriggerScore:          triggerScore,
		}
	default:
		return nil
	}
}

// EventResult reports one applied reputation event
type EventResult struct {
	PreviousScore     int   `json:"previous_score"`
	NewScore          int   `json:"new_score"`
	Level             Level `json:"level"`
	Applied           bool  `json:"applied"`
	AdjustmentChanged bool  `json:"adjustment_changed"`
}

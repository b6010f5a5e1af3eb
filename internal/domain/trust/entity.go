package trust

import (
	"math"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/reputation"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
)

// Assessment is the blended per-user view admission callers read: the
// raw risk score adjusted by reputation standing.
type Assessment struct {
	UserID          uuid.UUID        `json:"user_id"`
	BaseScore       int              `json:"base_score"`
	ReputationLevel reputation.Level `json:"reputation_level"`
	EffectiveScore  int              `json:"effective_score"`
	EffectiveLevel  risk.RiskLevel   `json:"effective_level"`
}

// VerificationRequirement for GET /trust/users/{id}/verification-requirement
type VerificationRequirement struct {
	UserID   uuid.UUID `json:"user_id"`
	Required bool      `json:"required"`
}

// blendFactor maps reputation standing to the risk discount or
// surcharge. NEUTRAL and unknown levels leave the base untouched.
func blendFactor(level reputation.Level) float64 {
	switch level {
	case reputation.LevelExcellent:
		return 0.9
	case reputation.LevelGood:
		return 0.95
	case reputation.LevelPoor:
		return 1.1
	case reputation.LevelCritical:
		return 1.2
	default:
		return 1.0
	}
}

// EffectiveRiskFor blends a base risk score with a reputation level,
// clamped to the valid score range.
func EffectiveRiskFor(baseScore int, level reputation.Level) int {
	return risk.ClampScore(int(math.Round(float64(baseScore) * blendFactor(level))))
}

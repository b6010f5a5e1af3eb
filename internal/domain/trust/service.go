package trust

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/reputation"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
)

// RiskReader is the part of the risk service the blend reads.
type RiskReader interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*risk.UserRiskProfile, error)
}

// ReputationReader resolves reputation standing. Implementations degrade
// to NEUTRAL internally, so the blend never sees an error from it.
type ReputationReader interface {
	Level(ctx context.Context, userID uuid.UUID) reputation.Level
}

// Service is the read-only blend layer over risk and reputation. It owns
// no storage.
type Service struct {
	risk       RiskReader
	reputation ReputationReader
}

func NewService(riskReader RiskReader, reputationReader ReputationReader) *Service {
	return &Service{risk: riskReader, reputation: reputationReader}
}

// EffectiveRisk blends the base risk score with reputation standing.
// An unreadable risk profile blends from a zero base so admission
// callers stay available; they re-check per action anyway.
func (s *Service) EffectiveRisk(ctx context.Context, userID uuid.UUID) *Assessment {
	base := 0
	profile, err := s.risk.GetProfile(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Risk profile unavailable, blending from zero base")
	} else {
		base = profile.RiskScore
	}

	level := s.reputation.Level(ctx, userID)
	effective := EffectiveRiskFor(base, level)
	return &Assessment{
		UserID:          userID,
		BaseScore:       base,
		ReputationLevel: level,
		EffectiveScore:  effective,
		EffectiveLevel:  risk.LevelForScore(effective),
	}
}

// RequiresExtraVerification reports whether the user's standing demands
// stepped-up identity checks before sensitive actions.
func (s *Service) RequiresExtraVerification(ctx context.Context, userID uuid.UUID) bool {
	level := s.reputation.Level(ctx, userID)
	return level == reputation.LevelPoor || level == reputation.LevelCritical
}

package reputation

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefixMultiplier = "trust:repmult:"
	multiplierCacheTTL  = 5 * time.Minute
)

// Service applies reputation events and answers the ranking reads. Event
// application is fail-open like risk scoring; the multiplier read
// degrades to neutral 1.0 so a scoring outage never empties the feed.
type Service struct {
	repo  Repository
	redis *redis.Client
}

// NewService creates the reputation service. redisClient may be nil;
// the multiplier read then skips caching.
func NewService(repo Repository, redisClient *redis.Client) *Service {
	return &Service{repo: repo, redis: redisClient}
}

func (s *Service) ApplyEvent(ctx context.Context, in ApplyEventInput) (*EventResult, error) {
	result, err := s.repo.ApplyEvent(ctx, in)
	if err != nil {
		log.Error().Err(err).Str("user_id", in.UserID.String()).Str("event", string(in.Event)).Msg("Reputation event dropped, scoring degraded")
		return nil, ErrScoringDegraded
	}

	if result.Applied {
		log.Info().
			Str("user_id", in.UserID.String()).
			Str("event", string(in.Event)).
			Int("previous_score", result.PreviousScore).
			Int("new_score", result.NewScore).
			Str("level", string(result.Level)).
			Bool("adjustment_changed", result.AdjustmentChanged).
			Msg("reputation event applied")

		if result.AdjustmentChanged {
			s.invalidateMultipliers(ctx, in.UserID)
		}
	}

	return result, nil
}

// OverrideScore is the staff write path. Fail-closed.
func (s *Service) OverrideScore(ctx context.Context, in OverrideInput) (*EventResult, error) {
	if in.NewScore < ScoreMin || in.NewScore > ScoreMax {
		return nil, ErrScoreOutOfRange
	}

	result, err := s.repo.OverrideScore(ctx, in)
	if err != nil {
		return nil, err
	}

	if result.AdjustmentChanged {
		s.invalidateMultipliers(ctx, in.UserID)
	}

	log.Info().
		Str("user_id", in.UserID.String()).
		Str("admin_id", in.AdminID.String()).
		Int("previous_score", result.PreviousScore).
		Int("new_score", result.NewScore).
		Msg("reputation score overridden")
	return result, nil
}

// RankingMultiplier resolves the per-context multiplier through a short
// redis cache. Every failure path answers neutral 1.0.
func (s *Service) RankingMultiplier(ctx context.Context, userID uuid.UUID, contextName string) float64 {
	switch contextName {
	case ContextDiscovery, ContextFeed, ContextSuggestions:
	default:
		log.Warn().Str("context", contextName).Msg("Unknown ranking context, using neutral multiplier")
		return 1.0
	}

	key := multiplierKey(userID, contextName)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			if m, err := strconv.ParseFloat(cached, 64); err == nil {
				return m
			}
		}
	}

	adjustment, err := s.repo.GetActiveAdjustment(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Adjustment lookup failed, using neutral multiplier")
		return 1.0
	}

	multiplier := 1.0
	if adjustment != nil {
		multiplier = adjustment.MultiplierFor(contextName)
	}

	if s.redis != nil {
		s.redis.Set(ctx, key, strconv.FormatFloat(multiplier, 'f', -1, 64), multiplierCacheTTL)
	}
	return multiplier
}

func multiplierKey(userID uuid.UUID, context string) string {
	return keyPrefixMultiplier + userID.String() + ":" + context
}

func (s *Service) invalidateMultipliers(ctx context.Context, userID uuid.UUID) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx,
		multiplierKey(userID, ContextDiscovery),
		multiplierKey(userID, ContextFeed),
		multiplierKey(userID, ContextSuggestions),
	)
}

// Hint is the only reputation surface end users ever see. It is
// positive-only: a boost earns a message, everything else is silence.
func (s *Service) Hint(ctx context.Context, userID uuid.UUID) *Hint {
	adjustment, err := s.repo.GetActiveAdjustment(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Hint lookup failed")
		return &Hint{}
	}
	if adjustment == nil || adjustment.AdjustmentType != TypeBoost {
		return &Hint{}
	}

	message := "Great behavior! Your profile is getting a visibility boost."
	if adjustment.Level == AdjustmentMajor {
		message = "You're one of our most trusted members. Your profile gets top visibility."
	}
	return &Hint{HasHint: true, Message: message}
}

// GetReputation never errors on absence: users without a record sit at
// the default.
func (s *Service) GetReputation(ctx context.Context, userID uuid.UUID) (*UserReputation, error) {
	rep, err := s.repo.GetReputation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return NeutralReputation(userID), nil
	}
	return rep, nil
}

// Level returns the user's reputation level for blending. Storage errors
// degrade to NEUTRAL.
func (s *Service) Level(ctx context.Context, userID uuid.UUID) Level {
	rep, err := s.repo.GetReputation(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Reputation lookup failed, using NEUTRAL")
		return LevelNeutral
	}
	if rep == nil {
		return LevelNeutral
	}
	return rep.Level()
}

func (s *Service) GetActiveAdjustment(ctx context.Context, userID uuid.UUID) (*ReputationAdjustment, error) {
	return s.repo.GetActiveAdjustment(ctx, userID)
}

func (s *Service) ListAdjustments(ctx context.Context, userID uuid.UUID, limit int) ([]ReputationAdjustment, error) {
	return s.repo.ListAdjustments(ctx, userID, limit)
}

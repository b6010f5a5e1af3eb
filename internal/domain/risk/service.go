package risk

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
)

// Service applies risk events and enforces the fail-open/fail-closed
// policy: organic scoring never blocks the caller's primary action, with
// the single exception of the critical minor-contact event.
type Service struct {
	repo   Repository
	alerts alert.Publisher
}

func NewService(repo Repository, alerts alert.Publisher) *Service {
	return &Service{repo: repo, alerts: alerts}
}

func (s *Service) ApplyEvent(ctx context.Context, in ApplyEventInput) (*EventResult, error) {
	result, err := s.repo.ApplyEvent(ctx, in)
	if err != nil {
		if in.Event.IsCritical() {
			// The one event that must never silently fail: alert staff
			// even though the score write did not land, and surface the
			// error so the caller retries.
			s.alerts.Publish(ctx, alert.New(alert.KindMinorContact, in.UserID, string(LevelCritical), "score write failed, retry pending"))
			log.Error().Err(err).Str("user_id", in.UserID.String()).Str("event", string(in.Event)).Msg("Critical risk event failed to apply")
			return nil, err
		}
		log.Error().Err(err).Str("user_id", in.UserID.String()).Str("event", string(in.Event)).Msg("Risk event dropped, scoring degraded")
		return nil, ErrScoringDegraded
	}

	if result.Applied {
		log.Info().
			Str("user_id", in.UserID.String()).
			Str("event", string(in.Event)).
			Int("previous_score", result.PreviousScore).
			Int("new_score", result.NewScore).
			Str("level", string(result.Level)).
			Msg("risk event applied")

		s.publishTransitions(ctx, in, result)
	}

	return result, nil
}

// publishTransitions fires staff alerts for band entries and category
// threshold crossings. Best-effort.
func (s *Service) publishTransitions(ctx context.Context, in ApplyEventInput, result *EventResult) {
	if in.Event.IsCritical() {
		a := alert.New(alert.KindMinorContact, in.UserID, string(result.Level), "minor contact attempt")
		a.RelatedUserID = in.RelatedUserID
		s.alerts.Publish(ctx, a)
		return
	}

	prevLevel := LevelForScore(result.PreviousScore)
	if levelRank(result.Level) >= levelRank(LevelHigh) && levelRank(result.Level) > levelRank(prevLevel) {
		s.alerts.Publish(ctx, alert.New(alert.KindRiskLevelChange, in.UserID, string(result.Level), string(in.Event)))
	}

	threshold := ProfileForCategory(result.Category).AlertScoreThreshold
	if result.PreviousScore < threshold && result.NewScore >= threshold {
		s.alerts.Publish(ctx, alert.New(alert.KindCategoryThreshold, in.UserID, string(result.Level), string(result.Category)))
	}
}

func (s *Service) Categorize(ctx context.Context, userID uuid.UUID, category SafetyCategory) (*UserRiskProfile, error) {
	if !ValidCategory(category) {
		return nil, ErrInvalidCategory
	}

	profile, err := s.repo.Categorize(ctx, userID, category)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Str("category", string(category)).Msg("user categorized")
	return profile, nil
}

// OverrideScore is the staff write path. Fail-closed: validation and
// storage errors propagate.
func (s *Service) OverrideScore(ctx context.Context, in OverrideInput) (*EventResult, error) {
	if in.NewScore < ScoreMin || in.NewScore > ScoreMax {
		return nil, ErrScoreOutOfRange
	}

	result, err := s.repo.OverrideScore(ctx, in)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", in.UserID.String()).
		Str("admin_id", in.AdminID.String()).
		Int("previous_score", result.PreviousScore).
		Int("new_score", result.NewScore).
		Msg("risk score overridden")
	return result, nil
}

// GetProfile never errors on absence: users without a record are neutral.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserRiskProfile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return NeutralProfile(userID), nil
	}
	return profile, nil
}

// Category returns the user's safety category, standard when unknown.
// Storage errors degrade to the default so location assessment keeps
// the tier baseline.
func (s *Service) Category(ctx context.Context, userID uuid.UUID) SafetyCategory {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Category lookup failed, using standard")
		return CategoryStandard
	}
	if profile == nil {
		return CategoryStandard
	}
	return profile.SafetyCategory
}

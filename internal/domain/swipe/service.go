package swipe

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
)

// Service tracks repeated right-swipe patterns and answers the
// visibility read the discovery candidate generator runs per profile.
// Both paths are fail-open: tracking failures never block the swipe and
// read failures leave the profile visible.
type Service struct {
	repo   Repository
	alerts alert.Publisher
}

func NewService(repo Repository, alerts alert.Publisher) *Service {
	return &Service{repo: repo, alerts: alerts}
}

func (s *Service) Track(ctx context.Context, in TrackInput) (*TrackResult, error) {
	if !in.IsRightSwipe {
		return &TrackResult{}, nil
	}

	out, err := s.repo.Track(ctx, in)
	if err != nil {
		log.Error().Err(err).
			Str("swiper_id", in.SwiperID.String()).
			Str("target_id", in.TargetID.String()).
			Msg("Swipe pattern write failed, tracking degraded")
		return nil, ErrTrackingDegraded
	}

	if out.BecamePermanent {
		a := alert.New(alert.KindPermanentHide, in.SwiperID, "", "repeat unmatched right-swipes after an expired hide")
		a.RelatedUserID = uuid.NullUUID{UUID: in.TargetID, Valid: true}
		s.alerts.Publish(ctx, a)
	}

	tracking := out.Tracking
	if tracking.HiddenAt(time.Now()) {
		log.Info().
			Str("swiper_id", in.SwiperID.String()).
			Str("target_id", in.TargetID.String()).
			Int("hidden_days", tracking.HiddenDays).
			Bool("permanent", tracking.PermanentlyHidden).
			Msg("profile hidden from swiper")
	}

	return &TrackResult{
		Hidden:      tracking.HiddenAt(time.Now()),
		HiddenUntil: tracking.HiddenUntil,
		Permanent:   tracking.PermanentlyHidden,
	}, nil
}

// IsHidden is the discovery read. No record or a storage error means
// visible.
func (s *Service) IsHidden(ctx context.Context, swiperID, targetID uuid.UUID) bool {
	tracking, err := s.repo.GetTracking(ctx, swiperID, targetID)
	if err != nil {
		log.Error().Err(err).
			Str("swiper_id", swiperID.String()).
			Str("target_id", targetID.String()).
			Msg("Swipe visibility lookup failed, leaving profile visible")
		return false
	}
	if tracking == nil {
		return false
	}
	return tracking.HiddenAt(time.Now())
}

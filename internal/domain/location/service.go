package location

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/places"
)

// Categories is the part of the risk service location assessment needs
type Categories interface {
	Category(ctx context.Context, userID uuid.UUID) risk.SafetyCategory
}

// AssessInput describes one proposed meeting place
type AssessInput struct {
	RequestedBy uuid.UUID
	Latitude    float64
	Longitude   float64
	Address     string
	PlaceName   string
	BookingID   string
	EventID     string
}

// Service classifies proposed meeting places into risk tiers and records
// each assessment as an immutable audit row. The classifier is the
// product here: its failure is the caller's error. The audit write is
// not: its failure is logged and the assessment still returned.
type Service struct {
	repo       Repository
	classifier places.Classifier
	categories Categories
	alerts     alert.Publisher
}

func NewService(repo Repository, classifier places.Classifier, categories Categories, alerts alert.Publisher) *Service {
	return &Service{repo: repo, classifier: classifier, categories: categories, alerts: alerts}
}

func (s *Service) Assess(ctx context.Context, in AssessInput) (*LocationSafetyCheck, error) {
	check := &LocationSafetyCheck{
		ID:          uuid.New(),
		RequestedBy: in.RequestedBy,
		BookingID:   nullString(in.BookingID),
		EventID:     nullString(in.EventID),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     nullString(in.Address),
		PlaceName:   nullString(in.PlaceName),
		CreatedAt:   time.Now().UTC(),
	}

	if in.Address == "" && in.PlaceName == "" {
		// Coordinate-only proposals are never allowed to start.
		check.RiskLevel = TierBlocked
	} else {
		place, err := s.classifier.Classify(ctx, in.Latitude, in.Longitude)
		if err != nil {
			log.Error().Err(err).
				Str("requested_by", in.RequestedBy.String()).
				Msg("Place classification failed")
			return nil, err
		}
		if place.Found {
			check.VenueCategory = nullString(place.Category)
			if !check.PlaceName.Valid {
				check.PlaceName = nullString(place.Name)
			}
		}
		check.RiskLevel = TierForCategory(place.Category, place.Found)
	}

	profile := risk.ProfileForCategory(s.categories.Category(ctx, in.RequestedBy))
	p := ProtectionsFor(check.RiskLevel, profile)
	check.EnhancedSelfieRequired = p.EnhancedSelfieRequired
	check.TrustedContactRequired = p.TrustedContactRequired
	check.SafetyTimerMinutes = p.SafetyTimerMinutes
	check.MeetingBlocked = p.MeetingBlocked

	if err := s.repo.Insert(ctx, check); err != nil {
		// The assessment is the product; the audit trail catches up on
		// the next check.
		log.Error().Err(err).
			Str("check_id", check.ID.String()).
			Str("requested_by", in.RequestedBy.String()).
			Msg("Location safety audit write failed")
	}

	if check.MeetingBlocked {
		s.alerts.Publish(ctx, alert.New(alert.KindMeetingBlocked, in.RequestedBy, "", string(check.RiskLevel)))
	}

	log.Info().
		Str("check_id", check.ID.String()).
		Str("requested_by", in.RequestedBy.String()).
		Str("risk_level", string(check.RiskLevel)).
		Bool("meeting_blocked", check.MeetingBlocked).
		Msg("location assessed")

	return check, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*LocationSafetyCheck, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]LocationSafetyCheck, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
)

// RiskEvents is the part of the risk service booking fans out to
type RiskEvents interface {
	ApplyEvent(ctx context.Context, in risk.ApplyEventInput) (*risk.EventResult, error)
}

// Service records booking outcomes, answers the pre-booking gate and
// fans recorded outcomes out to risk scoring. The gate is fail-open:
// a broken trust store never stops people from booking.
type Service struct {
	repo   Repository
	risk   RiskEvents
	alerts alert.Publisher
}

func NewService(repo Repository, riskEvents RiskEvents, alerts alert.Publisher) *Service {
	return &Service{repo: repo, risk: riskEvents, alerts: alerts}
}

func (s *Service) RecordOutcome(ctx context.Context, in RecordOutcomeInput) (*OutcomeResult, error) {
	if in.RequesterID == in.TargetID {
		return nil, ErrSelfBooking
	}
	if in.Outcome == OutcomePanicEnded && !in.PanicBy.Valid {
		return nil, ErrPanicByRequired
	}

	result, err := s.repo.RecordOutcome(ctx, in)
	if err != nil {
		return nil, err
	}

	if result.Applied {
		log.Info().
			Str("requester_id", in.RequesterID.String()).
			Str("target_id", in.TargetID.String()).
			Str("outcome", string(in.Outcome)).
			Str("booking_id", in.BookingID).
			Int("rejection_count", result.History.RejectionCount).
			Str("state", string(result.History.State())).
			Msg("booking outcome recorded")

		s.fanOut(ctx, in, result.History)
	}

	return result, nil
}

// fanOut translates a recorded outcome into risk events, each in its own
// transaction. Failures are logged and tolerated: the outcome itself is
// already durable, and the ingest path redelivers.
func (s *Service) fanOut(ctx context.Context, in RecordOutcomeInput, history *BookingAttemptHistory) {
	target := uuid.NullUUID{UUID: in.TargetID, Valid: true}
	requester := uuid.NullUUID{UUID: in.RequesterID, Valid: true}

	switch in.Outcome {
	case OutcomeRejected:
		s.applyRisk(ctx, risk.ApplyEventInput{
			UserID:        in.RequesterID,
			Event:         risk.EventBookingRejected,
			RelatedUserID: target,
			ContextRef:    in.BookingID,
		})
		if history.PermanentlyBlocked && history.RejectionCount == permanentRejections {
			a := alert.New(alert.KindPermanentBlock, in.RequesterID, "", "third rejection by same person")
			a.RelatedUserID = target
			s.alerts.Publish(ctx, a)
		}

	case OutcomeCompletedNormal:
		s.applyRisk(ctx, risk.ApplyEventInput{
			UserID:        in.RequesterID,
			Event:         risk.EventSuccessfulMeeting,
			RelatedUserID: target,
			ContextRef:    in.BookingID,
		})
		s.applyRisk(ctx, risk.ApplyEventInput{
			UserID:        in.TargetID,
			Event:         risk.EventSuccessfulMeeting,
			RelatedUserID: requester,
			ContextRef:    in.BookingID,
		})

	case OutcomePanicEnded:
		// The score hit lands on whoever the panicking party met
		other := in.TargetID
		if in.PanicBy.UUID == in.TargetID {
			other = in.RequesterID
		}
		s.applyRisk(ctx, risk.ApplyEventInput{
			UserID:        other,
			Event:         risk.EventPanicAlertByOther,
			RelatedUserID: in.PanicBy,
			ContextRef:    in.BookingID,
		})
	}
}

func (s *Service) applyRisk(ctx context.Context, in risk.ApplyEventInput) {
	if _, err := s.risk.ApplyEvent(ctx, in); err != nil {
		log.Error().Err(err).
			Str("user_id", in.UserID.String()).
			Str("event", string(in.Event)).
			Msg("Booking outcome risk fan-out failed")
	}
}

const permanentRejections = 3

// CheckCooldown answers whether requester may book target right now.
// Storage errors degrade to allow.
func (s *Service) CheckCooldown(ctx context.Context, requesterID, targetID uuid.UUID) *CooldownDecision {
	history, err := s.repo.GetHistory(ctx, requesterID, targetID)
	if err != nil {
		log.Error().Err(err).
			Str("requester_id", requesterID.String()).
			Str("target_id", targetID.String()).
			Msg("Cooldown lookup failed, allowing booking")
		return &CooldownDecision{CanBook: true}
	}
	return decide(history, time.Now())
}

// decide derives the gate answer from a stored pair history. Expired
// cooldowns count as lifted without a write: the next recorded outcome
// rewrites the row anyway.
func decide(history *BookingAttemptHistory, now time.Time) *CooldownDecision {
	if history == nil {
		return &CooldownDecision{CanBook: true}
	}
	if history.PermanentlyBlocked {
		return &CooldownDecision{CanBook: false, Reason: ReasonPermanentBlock, PermanentlyBlocked: true}
	}
	if history.CooldownActive && history.CooldownUntil.Valid && now.Before(history.CooldownUntil.Time) {
		return &CooldownDecision{
			CanBook:       false,
			Reason:        ReasonCooldownActive,
			CooldownUntil: history.CooldownUntil,
		}
	}
	return &CooldownDecision{CanBook: true}
}

func (s *Service) GetHistory(ctx context.Context, requesterID, targetID uuid.UUID) (*BookingAttemptHistory, error) {
	return s.repo.GetHistory(ctx, requesterID, targetID)
}

// ReleasePermanentBlock is the staff write path. Fail-closed.
func (s *Service) ReleasePermanentBlock(ctx context.Context, in ReleaseInput) (*BookingAttemptHistory, error) {
	history, err := s.repo.ReleasePermanentBlock(ctx, in)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("requester_id", in.RequesterID.String()).
		Str("target_id", in.TargetID.String()).
		Str("admin_id", in.AdminID.String()).
		Msg("permanent booking block released")
	return history, nil
}

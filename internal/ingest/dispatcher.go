package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/booking"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/feedback"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/swipe"
)

// ErrRedeliver marks a failure the consumer must not commit past. The
// message stays on the partition and is fetched again after backoff.
// Only critical safety events earn this: everything else fails open and
// is acknowledged.
var ErrRedeliver = errors.New("redeliver message")

type RiskApplier interface {
	ApplyEvent(ctx context.Context, in risk.ApplyEventInput) (*risk.EventResult, error)
}

type BookingRecorder interface {
	RecordOutcome(ctx context.Context, in booking.RecordOutcomeInput) (*booking.OutcomeResult, error)
}

type SwipeTracker interface {
	Track(ctx context.Context, in swipe.TrackInput) (*swipe.TrackResult, error)
}

type FeedbackIntake interface {
	Submit(ctx context.Context, in feedback.SubmitInput) (*feedback.SubmitResult, error)
	AccountCreated(ctx context.Context, userID uuid.UUID) *feedback.BootstrapResult
}

// Dispatcher routes consumed messages into the domain services. It owns
// the poison-message policy: payloads that can never apply (bad JSON,
// unknown enums) are logged and acknowledged so they cannot wedge a
// partition.
type Dispatcher struct {
	risk     RiskApplier
	bookings BookingRecorder
	swipes   SwipeTracker
	feedback FeedbackIntake
}

func NewDispatcher(riskSvc RiskApplier, bookingSvc BookingRecorder, swipeSvc SwipeTracker, feedbackSvc FeedbackIntake) *Dispatcher {
	return &Dispatcher{
		risk:     riskSvc,
		bookings: bookingSvc,
		swipes:   swipeSvc,
		feedback: feedbackSvc,
	}
}

// Dispatch applies one message. A nil return means the message is done
// with, whether it applied or failed open. ErrRedeliver means the
// caller must retry without committing.
func (d *Dispatcher) Dispatch(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case TopicRiskEvents:
		return d.riskEvent(ctx, msg.Value)
	case TopicBookingOutcomes:
		return d.bookingOutcome(ctx, msg.Value)
	case TopicSwipeActions:
		return d.swipeAction(ctx, msg.Value)
	case TopicMeetingFeedback:
		return d.meetingFeedback(ctx, msg.Value)
	case TopicAccountEvents:
		return d.accountEvent(ctx, msg.Value)
	default:
		log.Warn().Str("topic", msg.Topic).Msg("Message on unknown topic skipped")
		return nil
	}
}

func (d *Dispatcher) riskEvent(ctx context.Context, value []byte) error {
	var msg RiskEventMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		log.Error().Err(err).Str("topic", TopicRiskEvents).Msg("Malformed message skipped")
		return nil
	}

	event, err := risk.ParseEvent(msg.Event)
	if err != nil {
		log.Error().Err(err).Str("event", msg.Event).Msg("Unknown risk event skipped")
		return nil
	}

	in := risk.ApplyEventInput{
		UserID:     msg.UserID,
		Event:      event,
		ContextRef: msg.ContextRef,
		Metadata:   msg.Metadata,
	}
	if msg.RelatedUserID != nil {
		in.RelatedUserID = uuid.NullUUID{UUID: *msg.RelatedUserID, Valid: true}
	}

	if _, err := d.risk.ApplyEvent(ctx, in); err != nil {
		if event.IsCritical() {
			return fmt.Errorf("%w: apply %s for %s: %v", ErrRedeliver, event, msg.UserID, err)
		}
		log.Error().Err(err).
			Str("event", string(event)).
			Str("user_id", msg.UserID.String()).
			Msg("Risk event dropped after scoring failure")
	}
	return nil
}

func (d *Dispatcher) bookingOutcome(ctx context.Context, value []byte) error {
	var msg BookingOutcomeMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		log.Error().Err(err).Str("topic", TopicBookingOutcomes).Msg("Malformed message skipped")
		return nil
	}

	outcome, err := booking.ParseOutcome(msg.Outcome)
	if err != nil {
		log.Error().Err(err).Str("outcome", msg.Outcome).Msg("Unknown booking outcome skipped")
		return nil
	}

	in := booking.RecordOutcomeInput{
		RequesterID: msg.RequesterID,
		TargetID:    msg.TargetID,
		Outcome:     outcome,
		BookingID:   msg.BookingID,
	}
	if msg.PanicBy != nil {
		in.PanicBy = uuid.NullUUID{UUID: *msg.PanicBy, Valid: true}
	}

	if _, err := d.bookings.RecordOutcome(ctx, in); err != nil {
		log.Error().Err(err).
			Str("booking_id", msg.BookingID).
			Str("requester_id", msg.RequesterID.String()).
			Msg("Booking outcome dropped after storage failure")
	}
	return nil
}

func (d *Dispatcher) swipeAction(ctx context.Context, value []byte) error {
	var msg SwipeActionMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		log.Error().Err(err).Str("topic", TopicSwipeActions).Msg("Malformed message skipped")
		return nil
	}

	if _, err := d.swipes.Track(ctx, swipe.TrackInput{
		SwiperID:           msg.SwiperID,
		TargetID:           msg.TargetID,
		IsRightSwipe:       msg.IsRightSwipe,
		MatchHappened:      msg.MatchHappened,
		WasBlockedByTarget: msg.WasBlockedByTarget,
	}); err != nil {
		log.Error().Err(err).
			Str("swiper_id", msg.SwiperID.String()).
			Msg("Swipe action dropped after storage failure")
	}
	return nil
}

func (d *Dispatcher) meetingFeedback(ctx context.Context, value []byte) error {
	var msg FeedbackMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		log.Error().Err(err).Str("topic", TopicMeetingFeedback).Msg("Malformed message skipped")
		return nil
	}

	_, err := d.feedback.Submit(ctx, feedback.SubmitInput{
		GiverID:    msg.GiverID,
		ReceiverID: msg.ReceiverID,
		Positive:   msg.Positive,
		VibeRating: msg.VibeRating,
		ShowedUp:   msg.ShowedUp,
		ContextID:  msg.ContextID,
		Comment:    msg.Comment,
	})
	if err != nil {
		// Submit fails open on scoring outages; an error here means the
		// payload itself is unusable.
		log.Error().Err(err).
			Str("giver_id", msg.GiverID.String()).
			Str("receiver_id", msg.ReceiverID.String()).
			Msg("Feedback message skipped")
	}
	return nil
}

func (d *Dispatcher) accountEvent(ctx context.Context, value []byte) error {
	var msg AccountEventMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		log.Error().Err(err).Str("topic", TopicAccountEvents).Msg("Malformed message skipped")
		return nil
	}

	if msg.Event != EventAccountCreated {
		log.Debug().Str("event", msg.Event).Msg("Account event skipped")
		return nil
	}

	d.feedback.AccountCreated(ctx, msg.UserID)
	return nil
}

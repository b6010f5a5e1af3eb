package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/booking"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/feedback"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/swipe"
)

type fakeRisk struct {
	mu       sync.Mutex
	attempts int
	applied  []risk.ApplyEventInput
	failWith error
	failLeft int
}

func (f *fakeRisk) ApplyEvent(_ context.Context, in risk.ApplyEventInput) (*risk.EventResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failLeft > 0 {
		f.failLeft--
		return nil, errors.New("storage down")
	}
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.applied = append(f.applied, in)
	return &risk.EventResult{Applied: true}, nil
}

type fakeBookings struct {
	mu       sync.Mutex
	recorded []booking.RecordOutcomeInput
}

func (f *fakeBookings) RecordOutcome(_ context.Context, in booking.RecordOutcomeInput) (*booking.OutcomeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, in)
	return &booking.OutcomeResult{}, nil
}

type fakeSwipes struct {
	mu      sync.Mutex
	tracked []swipe.TrackInput
}

func (f *fakeSwipes) Track(_ context.Context, in swipe.TrackInput) (*swipe.TrackResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked = append(f.tracked, in)
	return &swipe.TrackResult{}, nil
}

type fakeFeedback struct {
	mu        sync.Mutex
	submitted []feedback.SubmitInput
	created   []uuid.UUID
	submitErr error
}

func (f *fakeFeedback) Submit(_ context.Context, in feedback.SubmitInput) (*feedback.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, in)
	return &feedback.SubmitResult{}, nil
}

func (f *fakeFeedback) AccountCreated(_ context.Context, userID uuid.UUID) *feedback.BootstrapResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, userID)
	return &feedback.BootstrapResult{UserID: userID}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestDispatchRoutesRiskEvent(t *testing.T) {
	riskFake := &fakeRisk{}
	d := NewDispatcher(riskFake, &fakeBookings{}, &fakeSwipes{}, &fakeFeedback{})

	userID := uuid.New()
	related := uuid.New()
	msg := kafka.Message{
		Topic: TopicRiskEvents,
		Value: mustJSON(t, RiskEventMessage{
			UserID:        userID,
			Event:         "COMPLAINT",
			RelatedUserID: &related,
			ContextRef:    "report-441",
		}),
	}

	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(riskFake.applied) != 1 {
		t.Fatalf("expected one apply, got %d", len(riskFake.applied))
	}
	in := riskFake.applied[0]
	if in.UserID != userID || in.Event != risk.EventComplaint || in.ContextRef != "report-441" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if !in.RelatedUserID.Valid || in.RelatedUserID.UUID != related {
		t.Fatalf("expected related user to carry over, got %+v", in.RelatedUserID)
	}
}

func TestDispatchCriticalFailureRequestsRedeliver(t *testing.T) {
	riskFake := &fakeRisk{failWith: errors.New("write failed")}
	d := NewDispatcher(riskFake, &fakeBookings{}, &fakeSwipes{}, &fakeFeedback{})

	msg := kafka.Message{
		Topic: TopicRiskEvents,
		Value: mustJSON(t, RiskEventMessage{
			UserID: uuid.New(),
			Event:  "MINOR_CONTACT_ATTEMPT",
		}),
	}

	err := d.Dispatch(context.Background(), msg)
	if !errors.Is(err, ErrRedeliver) {
		t.Fatalf("expected ErrRedeliver, got %v", err)
	}
}

func TestDispatchDegradedNonCriticalAcks(t *testing.T) {
	riskFake := &fakeRisk{failWith: risk.ErrScoringDegraded}
	d := NewDispatcher(riskFake, &fakeBookings{}, &fakeSwipes{}, &fakeFeedback{})

	msg := kafka.Message{
		Topic: TopicRiskEvents,
		Value: mustJSON(t, RiskEventMessage{UserID: uuid.New(), Event: "COMPLAINT"}),
	}

	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("expected non-critical failure to ack, got %v", err)
	}
}

func TestDispatchUnknownRiskEventAcks(t *testing.T) {
	riskFake := &fakeRisk{}
	d := NewDispatcher(riskFake, &fakeBookings{}, &fakeSwipes{}, &fakeFeedback{})

	msg := kafka.Message{
		Topic: TopicRiskEvents,
		Value: mustJSON(t, RiskEventMessage{UserID: uuid.New(), Event: "NOT_A_THING"}),
	}

	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("expected poison message to ack, got %v", err)
	}
	if riskFake.attempts != 0 {
		t.Fatalf("expected no apply attempts, got %d", riskFake.attempts)
	}
}

func TestDispatchMalformedPayloadAcks(t *testing.T) {
	riskFake := &fakeRisk{}
	d := NewDispatcher(riskFake, &fakeBookings{}, &fakeSwipes{}, &fakeFeedback{})

	for _, topic := range Topics() {
		msg := kafka.Message{Topic: topic, Value: []byte("{not json")}
		if err := d.Dispatch(context.Background(), msg); err != nil {
			t.Fatalf("topic %s: expected malformed payload to ack, got %v", topic, err)
		}
	}
	if riskFake.attempts != 0 {
		t.Fatalf("expected no apply attempts, got %d", riskFake.attempts)
	}
}

func TestDispatchBookingOutcome(t *testing.T) {
	bookings := &fakeBookings{}
	d := NewDispatcher(&fakeRisk{}, bookings, &fakeSwipes{}, &fakeFeedback{})

	requester := uuid.New()
	target := uuid.New()
	panicBy := target
	msg := kafka.Message{
		Topic: TopicBookingOutcomes,
		Value: mustJSON(t, BookingOutcomeMessage{
			RequesterID: requester,
			TargetID:    target,
			Outcome:     "PANIC_ENDED",
			BookingID:   "bk-31",
			PanicBy:     &panicBy,
		}),
	}

	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(bookings.recorded) != 1 {
		t.Fatalf("expected one outcome, got %d", len(bookings.recorded))
	}
	in := bookings.recorded[0]
	if in.Outcome != booking.OutcomePanicEnded || in.BookingID != "bk-31" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if !in.PanicBy.Valid || in.PanicBy.UUID != panicBy {
		t.Fatalf("expected panic_by to carry over, got %+v", in.PanicBy)
	}
}

func TestDispatchSwipeAction(t *testing.T) {
	swipes := &fakeSwipes{}
	d := NewDispatcher(&fakeRisk{}, &fakeBookings{}, swipes, &fakeFeedback{})

	msg := kafka.Message{
		Topic: TopicSwipeActions,
		Value: mustJSON(t, SwipeActionMessage{
			SwiperID:           uuid.New(),
			TargetID:           uuid.New(),
			IsRightSwipe:       true,
			WasBlockedByTarget: true,
		}),
	}

	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(swipes.tracked) != 1 {
		t.Fatalf("expected one track, got %d", len(swipes.tracked))
	}
	in := swipes.tracked[0]
	if !in.IsRightSwipe || !in.WasBlockedByTarget || in.MatchHappened {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestDispatchMeetingFeedback(t *testing.T) {
	fb := &fakeFeedback{}
	d := NewDispatcher(&fakeRisk{}, &fakeBookings{}, &fakeSwipes{}, fb)

	giver := uuid.New()
	receiver := uuid.New()
	msg := kafka.Message{
		Topic: TopicMeetingFeedback,
		Value: mustJSON(t, FeedbackMessage{
			GiverID:    giver,
			ReceiverID: receiver,
			Positive:   true,
			VibeRating: 5,
			ShowedUp:   true,
			ContextID:  "meeting-88",
		}),
	}

	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(fb.submitted) != 1 {
		t.Fatalf("expected one submit, got %d", len(fb.submitted))
	}
	in := fb.submitted[0]
	if in.GiverID != giver || in.ReceiverID != receiver || in.VibeRating != 5 || !in.ShowedUp {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestDispatchSelfFeedbackAcks(t *testing.T) {
	fb := &fakeFeedback{submitErr: feedback.ErrSelfFeedback}
	d := NewDispatcher(&fakeRisk{}, &fakeBookings{}, &fakeSwipes{}, fb)

	userID := uuid.New()
	msg := kafka.Message{
		Topic: TopicMeetingFeedback,
		Value: mustJSON(t, FeedbackMessage{GiverID: userID, ReceiverID: userID, ShowedUp: true, ContextID: "m-1"}),
	}

	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("expected self-feedback to ack, got %v", err)
	}
}

func TestDispatchAccountEvents(t *testing.T) {
	fb := &fakeFeedback{}
	d := NewDispatcher(&fakeRisk{}, &fakeBookings{}, &fakeSwipes{}, fb)

	userID := uuid.New()
	created := kafka.Message{
		Topic: TopicAccountEvents,
		Value: mustJSON(t, AccountEventMessage{UserID: userID, Event: EventAccountCreated}),
	}
	if err := d.Dispatch(context.Background(), created); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	deleted := kafka.Message{
		Topic: TopicAccountEvents,
		Value: mustJSON(t, AccountEventMessage{UserID: uuid.New(), Event: "account_deleted"}),
	}
	if err := d.Dispatch(context.Background(), deleted); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(fb.created) != 1 || fb.created[0] != userID {
		t.Fatalf("expected only account_created to bootstrap, got %v", fb.created)
	}
}

func TestDispatchUnknownTopicAcks(t *testing.T) {
	d := NewDispatcher(&fakeRisk{}, &fakeBookings{}, &fakeSwipes{}, &fakeFeedback{})

	msg := kafka.Message{Topic: "trust.unknown", Value: []byte(`{}`)}
	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("expected unknown topic to ack, got %v", err)
	}
}

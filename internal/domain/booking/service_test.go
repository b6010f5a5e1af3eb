package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/alert"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
)

// fakeRepo mirrors the repository contract in memory: per-pair rows,
// dedup keys, the same pure ladder functions.
type fakeRepo struct {
	mu       sync.Mutex
	pairs    map[string]*BookingAttemptHistory
	seen     map[string]bool
	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pairs: make(map[string]*BookingAttemptHistory),
		seen:  make(map[string]bool),
	}
}

func pairKey(requesterID, targetID uuid.UUID) string {
	return requesterID.String() + ":" + targetID.String()
}

func (f *fakeRepo) getOrCreate(requesterID, targetID uuid.UUID) *BookingAttemptHistory {
	key := pairKey(requesterID, targetID)
	h, ok := f.pairs[key]
	if !ok {
		h = &BookingAttemptHistory{RequesterID: requesterID, TargetID: targetID}
		f.pairs[key] = h
	}
	return h
}

func (f *fakeRepo) GetHistory(_ context.Context, requesterID, targetID uuid.UUID) (*BookingAttemptHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	h, ok := f.pairs[pairKey(requesterID, targetID)]
	if !ok {
		return nil, nil
	}
	copied := *h
	return &copied, nil
}

func (f *fakeRepo) RecordOutcome(_ context.Context, in RecordOutcomeInput) (*OutcomeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	h := f.getOrCreate(in.RequesterID, in.TargetID)

	key := outcomeDedupKey(in)
	if f.seen[key] {
		copied := *h
		return &OutcomeResult{History: &copied, Applied: false}, nil
	}

	next := advance(h, in.Outcome)
	f.pairs[pairKey(in.RequesterID, in.TargetID)] = next
	f.seen[key] = true

	copied := *next
	return &OutcomeResult{History: &copied, Applied: true}, nil
}

func (f *fakeRepo) ReleasePermanentBlock(_ context.Context, in ReleaseInput) (*BookingAttemptHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	h := f.getOrCreate(in.RequesterID, in.TargetID)
	if !h.PermanentlyBlocked {
		return nil, ErrNotBlocked
	}
	h.PermanentlyBlocked = false
	h.CooldownActive = false
	h.CooldownUntil = sql.NullTime{}
	h.RejectionCount = 0
	copied := *h
	return &copied, nil
}

type fakeRiskEvents struct {
	mu     sync.Mutex
	events []risk.ApplyEventInput
}

func (f *fakeRiskEvents) ApplyEvent(_ context.Context, in risk.ApplyEventInput) (*risk.EventResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, in)
	return &risk.EventResult{Applied: true}, nil
}

func (f *fakeRiskEvents) byEvent(event risk.Event) []risk.ApplyEventInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []risk.ApplyEventInput
	for _, e := range f.events {
		if e.Event == event {
			matched = append(matched, e)
		}
	}
	return matched
}

type capturePublisher struct {
	mu     sync.Mutex
	alerts []alert.SafetyAlert
}

func (p *capturePublisher) Publish(_ context.Context, a alert.SafetyAlert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
}

func (p *capturePublisher) count(kind alert.Kind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, a := range p.alerts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func record(t *testing.T, svc *Service, requesterID, targetID uuid.UUID, outcome Outcome, bookingID string) *OutcomeResult {
	t.Helper()
	result, err := svc.RecordOutcome(context.Background(), RecordOutcomeInput{
		RequesterID: requesterID,
		TargetID:    targetID,
		Outcome:     outcome,
		BookingID:   bookingID,
	})
	if err != nil {
		t.Fatalf("record %s/%s failed: %v", outcome, bookingID, err)
	}
	return result
}

func TestRejectionLadderEscalates(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeRiskEvents{}, alert.NopPublisher{})
	requesterID, targetID := uuid.New(), uuid.New()

	first := record(t, svc, requesterID, targetID, OutcomeRejected, "b1")
	if first.History.State() != StateCooldown7d {
		t.Fatalf("after 1 rejection expected COOLDOWN_7D, got %s", first.History.State())
	}
	if !first.History.CooldownUntil.Valid {
		t.Fatal("expected a cooldown expiry after first rejection")
	}
	until := time.Until(first.History.CooldownUntil.Time)
	if until < 6*24*time.Hour || until > 8*24*time.Hour {
		t.Fatalf("expected roughly 7 days of cooldown, got %v", until)
	}

	if gate := svc.CheckCooldown(context.Background(), requesterID, targetID); gate.CanBook {
		t.Fatal("expected gate to deny during cooldown")
	}

	second := record(t, svc, requesterID, targetID, OutcomeRejected, "b2")
	if second.History.State() != StateCooldown21 {
		t.Fatalf("after 2 rejections expected COOLDOWN_21D, got %s", second.History.State())
	}
	until = time.Until(second.History.CooldownUntil.Time)
	if until < 20*24*time.Hour || until > 22*24*time.Hour {
		t.Fatalf("expected roughly 21 days of cooldown, got %v", until)
	}

	third := record(t, svc, requesterID, targetID, OutcomeRejected, "b3")
	if third.History.State() != StatePermanent || !third.History.PermanentlyBlocked {
		t.Fatalf("after 3 rejections expected PERMANENT, got %+v", third.History)
	}

	gate := svc.CheckCooldown(context.Background(), requesterID, targetID)
	if gate.CanBook || !gate.PermanentlyBlocked || gate.Reason != ReasonPermanentBlock {
		t.Fatalf("expected permanent denial, got %+v", gate)
	}
}

func TestCompletedMeetingDoesNotResetLadder(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeRiskEvents{}, alert.NopPublisher{})
	requesterID, targetID := uuid.New(), uuid.New()

	record(t, svc, requesterID, targetID, OutcomeRejected, "b1")
	record(t, svc, requesterID, targetID, OutcomeRejected, "b2")
	record(t, svc, requesterID, targetID, OutcomeCompletedNormal, "b3")

	result := record(t, svc, requesterID, targetID, OutcomeRejected, "b4")
	if !result.History.PermanentlyBlocked {
		t.Fatal("a completed meeting must not reset the rejection count")
	}
}

func TestRecordOutcomeDedupReplay(t *testing.T) {
	riskEvents := &fakeRiskEvents{}
	svc := NewService(newFakeRepo(), riskEvents, alert.NopPublisher{})
	requesterID, targetID := uuid.New(), uuid.New()

	first := record(t, svc, requesterID, targetID, OutcomeRejected, "b1")
	if !first.Applied || first.History.RejectionCount != 1 {
		t.Fatalf("expected applied first delivery, got %+v", first)
	}

	replay := record(t, svc, requesterID, targetID, OutcomeRejected, "b1")
	if replay.Applied {
		t.Fatal("expected replay to report Applied=false")
	}
	if replay.History.RejectionCount != 1 {
		t.Fatalf("replay must not advance the ladder, got count %d", replay.History.RejectionCount)
	}
	if got := len(riskEvents.byEvent(risk.EventBookingRejected)); got != 1 {
		t.Fatalf("expected exactly one risk fan-out, got %d", got)
	}
}

func TestRejectionFansOutToRiskScoring(t *testing.T) {
	riskEvents := &fakeRiskEvents{}
	svc := NewService(newFakeRepo(), riskEvents, alert.NopPublisher{})
	requesterID, targetID := uuid.New(), uuid.New()

	record(t, svc, requesterID, targetID, OutcomeRejected, "b1")

	events := riskEvents.byEvent(risk.EventBookingRejected)
	if len(events) != 1 {
		t.Fatalf("expected one rejection event, got %d", len(events))
	}
	e := events[0]
	if e.UserID != requesterID {
		t.Fatalf("rejection must score the requester, got %s", e.UserID)
	}
	if !e.RelatedUserID.Valid || e.RelatedUserID.UUID != targetID {
		t.Fatalf("expected related user %s, got %+v", targetID, e.RelatedUserID)
	}
	if e.ContextRef != "b1" {
		t.Fatalf("expected booking id as context ref, got %q", e.ContextRef)
	}
}

func TestCompletedMeetingRewardsBothParties(t *testing.T) {
	riskEvents := &fakeRiskEvents{}
	svc := NewService(newFakeRepo(), riskEvents, alert.NopPublisher{})
	requesterID, targetID := uuid.New(), uuid.New()

	record(t, svc, requesterID, targetID, OutcomeCompletedNormal, "b1")

	events := riskEvents.byEvent(risk.EventSuccessfulMeeting)
	if len(events) != 2 {
		t.Fatalf("expected both parties rewarded, got %d events", len(events))
	}
	rewarded := map[uuid.UUID]bool{}
	for _, e := range events {
		rewarded[e.UserID] = true
	}
	if !rewarded[requesterID] || !rewarded[targetID] {
		t.Fatalf("expected requester and target rewarded, got %v", rewarded)
	}
}

func TestPanicFanOutTargetsOtherParty(t *testing.T) {
	riskEvents := &fakeRiskEvents{}
	svc := NewService(newFakeRepo(), riskEvents, alert.NopPublisher{})
	requesterID, targetID := uuid.New(), uuid.New()

	_, err := svc.RecordOutcome(context.Background(), RecordOutcomeInput{
		RequesterID: requesterID,
		TargetID:    targetID,
		Outcome:     OutcomePanicEnded,
		BookingID:   "b1",
		PanicBy:     uuid.NullUUID{UUID: targetID, Valid: true},
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	events := riskEvents.byEvent(risk.EventPanicAlertByOther)
	if len(events) != 1 {
		t.Fatalf("expected one panic event, got %d", len(events))
	}
	if events[0].UserID != requesterID {
		t.Fatalf("panic pressed by target must score the requester, got %s", events[0].UserID)
	}
}

func TestPanicRequiresPanicBy(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeRiskEvents{}, alert.NopPublisher{})

	_, err := svc.RecordOutcome(context.Background(), RecordOutcomeInput{
		RequesterID: uuid.New(),
		TargetID:    uuid.New(),
		Outcome:     OutcomePanicEnded,
		BookingID:   "b1",
	})
	if !errors.Is(err, ErrPanicByRequired) {
		t.Fatalf("expected ErrPanicByRequired, got %v", err)
	}
}

func TestPermanentBlockAlertFiresOnThirdRejectionOnly(t *testing.T) {
	pub := &capturePublisher{}
	svc := NewService(newFakeRepo(), &fakeRiskEvents{}, pub)
	requesterID, targetID := uuid.New(), uuid.New()

	for i := 1; i <= 4; i++ {
		record(t, svc, requesterID, targetID, OutcomeRejected, fmt.Sprintf("b%d", i))
	}

	if got := pub.count(alert.KindPermanentBlock); got != 1 {
		t.Fatalf("expected exactly one permanent-block alert, got %d", got)
	}
}

func TestGateFailsOpenOnStorageError(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("connection refused")
	svc := NewService(repo, &fakeRiskEvents{}, alert.NopPublisher{})

	if gate := svc.CheckCooldown(context.Background(), uuid.New(), uuid.New()); !gate.CanBook {
		t.Fatal("expected gate to allow when storage is down")
	}
}

func TestDecideLiftsExpiredCooldownWithoutWrite(t *testing.T) {
	now := time.Now()
	history := &BookingAttemptHistory{
		RejectionCount: 1,
		CooldownActive: true,
		CooldownUntil:  sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
	}

	if gate := decide(history, now); !gate.CanBook {
		t.Fatalf("expected expired cooldown to lift, got %+v", gate)
	}

	history.CooldownUntil = sql.NullTime{Time: now.Add(time.Hour), Valid: true}
	if gate := decide(history, now); gate.CanBook || gate.Reason != ReasonCooldownActive {
		t.Fatalf("expected active cooldown to deny, got %+v", gate)
	}
}

func TestSelfBookingRejected(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeRiskEvents{}, alert.NopPublisher{})
	userID := uuid.New()

	_, err := svc.RecordOutcome(context.Background(), RecordOutcomeInput{
		RequesterID: userID,
		TargetID:    userID,
		Outcome:     OutcomeRejected,
		BookingID:   "b1",
	})
	if !errors.Is(err, ErrSelfBooking) {
		t.Fatalf("expected ErrSelfBooking, got %v", err)
	}
}

func TestReleasePermanentBlockRestartsLadder(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeRiskEvents{}, alert.NopPublisher{})
	requesterID, targetID := uuid.New(), uuid.New()

	if _, err := svc.ReleasePermanentBlock(context.Background(), ReleaseInput{
		RequesterID: requesterID, TargetID: targetID, AdminID: uuid.New(), Reason: "appeal",
	}); !errors.Is(err, ErrNotBlocked) {
		t.Fatalf("expected ErrNotBlocked before any block, got %v", err)
	}

	for i := 1; i <= 3; i++ {
		record(t, svc, requesterID, targetID, OutcomeRejected, fmt.Sprintf("b%d", i))
	}

	released, err := svc.ReleasePermanentBlock(context.Background(), ReleaseInput{
		RequesterID: requesterID, TargetID: targetID, AdminID: uuid.New(), Reason: "appeal upheld",
	})
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if released.PermanentlyBlocked || released.RejectionCount != 0 {
		t.Fatalf("expected a clean ladder after release, got %+v", released)
	}

	if gate := svc.CheckCooldown(context.Background(), requesterID, targetID); !gate.CanBook {
		t.Fatalf("expected gate open after release, got %+v", gate)
	}

	again := record(t, svc, requesterID, targetID, OutcomeRejected, "b4")
	if again.History.State() != StateCooldown7d {
		t.Fatalf("expected ladder to restart at COOLDOWN_7D, got %s", again.History.State())
	}
}

func TestOutcomeHistoryKeepsLastFive(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeRiskEvents{}, alert.NopPublisher{})
	requesterID, targetID := uuid.New(), uuid.New()

	var last *OutcomeResult
	for i := 1; i <= 7; i++ {
		last = record(t, svc, requesterID, targetID, OutcomeCompletedNormal, fmt.Sprintf("b%d", i))
	}

	if len(last.History.MeetingOutcomes) != 5 {
		t.Fatalf("expected 5 retained outcomes, got %d", len(last.History.MeetingOutcomes))
	}
	if last.History.TotalAttempts != 7 || last.History.CompletedMeetings != 7 {
		t.Fatalf("counters must keep the full totals, got %+v", last.History)
	}
}

package feedback

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/reputation"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/concerns"
)

// RiskEvents is the part of the risk service feedback writes through
type RiskEvents interface {
	ApplyEvent(ctx context.Context, in risk.ApplyEventInput) (*risk.EventResult, error)
	Categorize(ctx context.Context, userID uuid.UUID, category risk.SafetyCategory) (*risk.UserRiskProfile, error)
}

// ReputationEvents is the part of the reputation service feedback
// writes through
type ReputationEvents interface {
	ApplyEvent(ctx context.Context, in reputation.ApplyEventInput) (*reputation.EventResult, error)
}

// SubmitInput carries one piece of meeting or chat feedback
type SubmitInput struct {
	GiverID    uuid.UUID
	ReceiverID uuid.UUID
	Positive   bool
	VibeRating int // 0 when not rated
	ShowedUp   bool
	ContextID  string
	Comment    string
}

// SubmitResult lists the scoring events that actually landed
type SubmitResult struct {
	RiskEvents       []string `json:"risk_events"`
	ReputationEvents []string `json:"reputation_events"`
	ConcernsFlagged  int      `json:"concerns_flagged"`
}

// BootstrapResult reports the account-creation seeding
type BootstrapResult struct {
	UserID          uuid.UUID `json:"user_id"`
	ReputationReady bool      `json:"reputation_ready"`
	Categorized     bool      `json:"categorized"`
}

const highVibeThreshold = 4

// Service translates collaborator feedback into named scoring events.
// It owns no storage: every translation is an independent write against
// the risk or reputation store.
type Service struct {
	risk       RiskEvents
	reputation ReputationEvents
	classifier concerns.Classifier
}

// NewService creates the feedback translator. classifier may be nil;
// comments then go unscreened.
func NewService(riskEvents RiskEvents, reputationEvents ReputationEvents, classifier concerns.Classifier) *Service {
	if classifier == nil {
		classifier = concerns.NopClassifier{}
	}
	return &Service{risk: riskEvents, reputation: reputationEvents, classifier: classifier}
}

// Submit applies each translation independently and fails open: the
// submission succeeds even when every score write is down, and the
// result lists what actually landed.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.GiverID == in.ReceiverID {
		return nil, ErrSelfFeedback
	}

	result := &SubmitResult{RiskEvents: []string{}, ReputationEvents: []string{}}
	giver := uuid.NullUUID{UUID: in.GiverID, Valid: true}

	if in.ShowedUp {
		s.applyReputation(ctx, result, reputation.ApplyEventInput{
			UserID:        in.ReceiverID,
			Event:         reputation.EventMeetingAttended,
			RelatedUserID: giver,
			ContextRef:    in.ContextID,
		})
	} else {
		s.applyReputation(ctx, result, reputation.ApplyEventInput{
			UserID:        in.ReceiverID,
			Event:         reputation.EventNoShow,
			RelatedUserID: giver,
			ContextRef:    in.ContextID,
		})
	}

	if in.VibeRating >= highVibeThreshold {
		s.applyRisk(ctx, result, risk.ApplyEventInput{
			UserID:        in.ReceiverID,
			Event:         risk.EventHighRating,
			RelatedUserID: giver,
			ContextRef:    in.ContextID,
		})
		s.applyReputation(ctx, result, reputation.ApplyEventInput{
			UserID:        in.ReceiverID,
			Event:         reputation.EventPositiveFeedback,
			RelatedUserID: giver,
			ContextRef:    in.ContextID,
		})
	}

	if in.Positive {
		s.applyRisk(ctx, result, risk.ApplyEventInput{
			UserID:        in.ReceiverID,
			Event:         risk.EventPositiveConfirmation,
			RelatedUserID: giver,
			ContextRef:    in.ContextID,
		})
	}

	if comment := strings.TrimSpace(in.Comment); comment != "" {
		s.screenComment(ctx, result, in, comment)
	}

	return result, nil
}

// screenComment runs the free-text comment through the concern
// classifier. A classifier outage skips screening, it never blocks the
// submission.
func (s *Service) screenComment(ctx context.Context, result *SubmitResult, in SubmitInput, comment string) {
	found, err := s.classifier.Classify(ctx, comment)
	if err != nil {
		log.Warn().Err(err).Str("context_id", in.ContextID).Msg("Concern screening unavailable, comment skipped")
		return
	}
	if len(found) == 0 {
		return
	}

	labels := make([]string, 0, len(found))
	for _, c := range found {
		labels = append(labels, c.Label)
	}
	result.ConcernsFlagged = len(found)

	s.applyRisk(ctx, result, risk.ApplyEventInput{
		UserID:        in.ReceiverID,
		Event:         risk.EventComplaint,
		RelatedUserID: uuid.NullUUID{UUID: in.GiverID, Valid: true},
		ContextRef:    in.ContextID,
		Metadata:      map[string]string{"concerns": strings.Join(labels, ",")},
	})
}

// AccountCreated seeds both stores for a fresh account: the reputation
// row at the default score and the new_account safety category. Both
// writes fail open, signup never waits on trust bootstrap.
func (s *Service) AccountCreated(ctx context.Context, userID uuid.UUID) *BootstrapResult {
	result := &BootstrapResult{UserID: userID}

	if _, err := s.reputation.ApplyEvent(ctx, reputation.ApplyEventInput{
		UserID:     userID,
		Event:      reputation.EventAccountCreated,
		ContextRef: "signup",
	}); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Reputation bootstrap failed")
	} else {
		result.ReputationReady = true
	}

	if _, err := s.risk.Categorize(ctx, userID, risk.CategoryNewAccount); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("New-account categorization failed")
	} else {
		result.Categorized = true
	}

	return result
}

func (s *Service) applyRisk(ctx context.Context, result *SubmitResult, in risk.ApplyEventInput) {
	res, err := s.risk.ApplyEvent(ctx, in)
	if err != nil {
		log.Error().Err(err).
			Str("user_id", in.UserID.String()).
			Str("event", string(in.Event)).
			Msg("Feedback risk event dropped")
		return
	}
	if res.Applied {
		result.RiskEvents = append(result.RiskEvents, string(in.Event))
	}
}

func (s *Service) applyReputation(ctx context.Context, result *SubmitResult, in reputation.ApplyEventInput) {
	res, err := s.reputation.ApplyEvent(ctx, in)
	if err != nil {
		log.Error().Err(err).
			Str("user_id", in.UserID.String()).
			Str("event", string(in.Event)).
			Msg("Feedback reputation event dropped")
		return
	}
	if res.Applied {
		result.ReputationEvents = append(result.ReputationEvents, string(in.Event))
	}
}

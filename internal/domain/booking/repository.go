package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RecordOutcomeInput carries one terminal booking outcome. BookingID
// derives the dedup key, so redelivery of the same outcome is a no-op.
type RecordOutcomeInput struct {
	RequesterID uuid.UUID
	TargetID    uuid.UUID
	Outcome     Outcome
	BookingID   string
	PanicBy     uuid.NullUUID
}

// ReleaseInput carries a staff release of a permanent pair block
type ReleaseInput struct {
	RequesterID uuid.UUID
	TargetID    uuid.UUID
	AdminID     uuid.UUID
	Reason      string
}

type Repository interface {
	GetHistory(ctx context.Context, requesterID, targetID uuid.UUID) (*BookingAttemptHistory, error)
	RecordOutcome(ctx context.Context, in RecordOutcomeInput) (*OutcomeResult, error)
	ReleasePermanentBlock(ctx context.Context, in ReleaseInput) (*BookingAttemptHistory, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetHistory(ctx context.Context, requesterID, targetID uuid.UUID) (*BookingAttemptHistory, error) {
	var history BookingAttemptHistory
	err := r.db.GetContext(ctx, &history, `
		SELECT * FROM booking_attempt_history WHERE requester_id = $1 AND target_id = $2
	`, requesterID, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *postgresRepository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockHistory creates the pair row if absent and takes the row lock that
// serializes concurrent writers on this requester->target pair.
func (r *postgresRepository) lockHistory(ctx context.Context, tx *sqlx.Tx, requesterID, targetID uuid.UUID) (*BookingAttemptHistory, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO booking_attempt_history (requester_id, target_id)
		VALUES ($1, $2)
		ON CONFLICT (requester_id, target_id) DO NOTHING
	`, requesterID, targetID); err != nil {
		return nil, err
	}

	var history BookingAttemptHistory
	err := tx.GetContext(ctx, &history, `
		SELECT * FROM booking_attempt_history WHERE requester_id = $1 AND target_id = $2 FOR UPDATE
	`, requesterID, targetID)
	if err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *postgresRepository) outcomeLogged(ctx context.Context, tx *sqlx.Tx, dedupKey string) (bool, error) {
	var one int
	err := tx.GetContext(ctx, &one, `
		SELECT 1 FROM trust_event_log WHERE dedup_key = $1 LIMIT 1
	`, dedupKey)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *postgresRepository) insertOutcomeLog(ctx context.Context, tx *sqlx.Tx, in RecordOutcomeInput, dedupKey string) error {
	var metadata interface{}
	if in.PanicBy.Valid {
		raw, err := json.Marshal(map[string]string{"panic_by": in.PanicBy.UUID.String()})
		if err != nil {
			return err
		}
		metadata = raw
	}

	related := uuid.NullUUID{UUID: in.TargetID, Valid: true}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO trust_event_log
			(id, domain, user_id, kind, delta, previous_score, new_score, related_user_id, context_ref, dedup_key, admin_id, metadata)
		VALUES ($1, 'booking', $2, $3, 0, 0, 0, $4, $5, $6, NULL, $7)
	`, uuid.New(), in.RequesterID, string(in.Outcome), related, in.BookingID, dedupKey, metadata)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

func (r *postgresRepository) RecordOutcome(ctx context.Context, in RecordOutcomeInput) (*OutcomeResult, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	history, err := r.lockHistory(ctx, tx, in.RequesterID, in.TargetID)
	if err != nil {
		return nil, err
	}

	key := outcomeDedupKey(in)
	seen, err := r.outcomeLogged(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if seen {
		return &OutcomeResult{History: history, Applied: false}, nil
	}

	if err := r.insertOutcomeLog(ctx, tx, in, key); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			// Lost the race to a concurrent delivery of the same outcome;
			// the rollback discards this side's history update.
			return &OutcomeResult{History: history, Applied: false}, nil
		}
		return nil, err
	}

	next := advance(history, in.Outcome)

	if err := r.updateHistory(ctx, tx, next); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &OutcomeResult{History: next, Applied: true}, nil
}

// advance applies one outcome to a locked history row. Rejections walk
// the cooldown ladder; nothing walks it back.
func advance(history *BookingAttemptHistory, outcome Outcome) *BookingAttemptHistory {
	next := *history
	next.TotalAttempts++

	next.MeetingOutcomes = append(append(pq.StringArray{}, history.MeetingOutcomes...), string(outcome))
	if len(next.MeetingOutcomes) > outcomeHistoryLimit {
		next.MeetingOutcomes = next.MeetingOutcomes[len(next.MeetingOutcomes)-outcomeHistoryLimit:]
	}

	switch outcome {
	case OutcomeCompletedNormal:
		next.CompletedMeetings++
	case OutcomeRejected:
		next.RejectionCount++
		switch StateForRejections(next.RejectionCount) {
		case StatePermanent:
			next.PermanentlyBlocked = true
			next.CooldownActive = false
			next.CooldownUntil = sql.NullTime{}
		default:
			next.CooldownActive = true
			next.CooldownUntil = sql.NullTime{
				Time:  time.Now().Add(CooldownDuration(next.RejectionCount)),
				Valid: true,
			}
		}
	}

	return &next
}

func (r *postgresRepository) updateHistory(ctx context.Context, tx *sqlx.Tx, h *BookingAttemptHistory) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE booking_attempt_history SET
			total_attempts = $1,
			rejection_count = $2,
			completed_meetings = $3,
			cooldown_active = $4,
			cooldown_until = $5,
			permanently_blocked = $6,
			meeting_outcomes = $7,
			updated_at = now()
		WHERE requester_id = $8 AND target_id = $9
	`, h.TotalAttempts, h.RejectionCount, h.CompletedMeetings, h.CooldownActive,
		h.CooldownUntil, h.PermanentlyBlocked, h.MeetingOutcomes, h.RequesterID, h.TargetID)
	return err
}

func (r *postgresRepository) ReleasePermanentBlock(ctx context.Context, in ReleaseInput) (*BookingAttemptHistory, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	history, err := r.lockHistory(ctx, tx, in.RequesterID, in.TargetID)
	if err != nil {
		return nil, err
	}
	if !history.PermanentlyBlocked {
		return nil, ErrNotBlocked
	}

	raw, err := json.Marshal(map[string]string{"reason": in.Reason})
	if err != nil {
		return nil, err
	}
	related := uuid.NullUUID{UUID: in.TargetID, Valid: true}
	adminID := uuid.NullUUID{UUID: in.AdminID, Valid: true}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trust_event_log
			(id, domain, user_id, kind, delta, previous_score, new_score, related_user_id, context_ref, dedup_key, admin_id, metadata)
		VALUES ($1, 'booking', $2, 'ADMIN_BLOCK_RELEASE', 0, 0, 0, $3, NULL, NULL, $4, $5)
	`, uuid.New(), in.RequesterID, related, adminID, raw); err != nil {
		return nil, err
	}

	next := *history
	next.PermanentlyBlocked = false
	next.CooldownActive = false
	next.CooldownUntil = sql.NullTime{}
	next.RejectionCount = 0

	if err := r.updateHistory(ctx, tx, &next); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &next, nil
}

func outcomeDedupKey(in RecordOutcomeInput) string {
	return "booking:" + string(in.Outcome) + ":" + in.RequesterID.String() + ":" + in.TargetID.String() + ":" + in.BookingID
}

package reputation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ApplyEventInput carries one reputation event. ContextRef, when set,
// derives the dedup key.
type ApplyEventInput struct {
	UserID        uuid.UUID
	Event         Event
	RelatedUserID uuid.NullUUID
	ContextRef    string
	Metadata      map[string]string
}

// OverrideInput carries a staff score override
type OverrideInput struct {
	UserID   uuid.UUID
	NewScore int
	Reason   string
	AdminID  uuid.UUID
}

type Repository interface {
	GetReputation(ctx context.Context, userID uuid.UUID) (*UserReputation, error)
	GetActiveAdjustment(ctx context.Context, userID uuid.UUID) (*ReputationAdjustment, error)
	ListAdjustments(ctx context.Context, userID uuid.UUID, limit int) ([]ReputationAdjustment, error)
	ApplyEvent(ctx context.Context, in ApplyEventInput) (*EventResult, error)
	OverrideScore(ctx context.Context, in OverrideInput) (*EventResult, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetReputation(ctx context.Context, userID uuid.UUID) (*UserReputation, error) {
	var rep UserReputation
	err := r.db.GetContext(ctx, &rep, `
		SELECT * FROM user_reputation WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *postgresRepository) GetActiveAdjustment(ctx context.Context, userID uuid.UUID) (*ReputationAdjustment, error) {
	var adj ReputationAdjustment
	err := r.db.GetContext(ctx, &adj, `
		SELECT * FROM reputation_adjustments WHERE user_id = $1 AND active
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

func (r *postgresRepository) ListAdjustments(ctx context.Context, userID uuid.UUID, limit int) ([]ReputationAdjustment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	adjustments := []ReputationAdjustment{}
	err := r.db.SelectContext(ctx, &adjustments, `
		SELECT * FROM reputation_adjustments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return adjustments, nil
}

func (r *postgresRepository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockReputation creates the row at the default score if absent and
// takes the row lock that serializes concurrent writers on this user.
func (r *postgresRepository) lockReputation(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*UserReputation, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_reputation (user_id, reputation_score)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, DefaultScore); err != nil {
		return nil, err
	}

	var rep UserReputation
	err := tx.GetContext(ctx, &rep, `
		SELECT * FROM user_reputation WHERE user_id = $1 FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *postgresRepository) eventLogged(ctx context.Context, tx *sqlx.Tx, dedupKey string) (bool, error) {
	if dedupKey == "" {
		return false, nil
	}

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

func (r *postgresRepository) insertEventLog(ctx context.Context, tx *sqlx.Tx, in ApplyEventInput, previous, next int, dedupKey string, adminID uuid.NullUUID) error {
	var dedup interface{}
	if dedupKey != "" {
		dedup = dedupKey
	}

	var metadata interface{}
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return err
		}
		metadata = raw
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO trust_event_log
			(id, domain, user_id, kind, delta, previous_score, new_score, related_user_id, context_ref, dedup_key, admin_id, metadata)
		VALUES ($1, 'reputation', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.New(), in.UserID, string(in.Event), next-previous, previous, next,
		in.RelatedUserID, nullableString(in.ContextRef), dedup, adminID, metadata)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (r *postgresRepository) ApplyEvent(ctx context.Context, in ApplyEventInput) (*EventResult, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rep, err := r.lockReputation(ctx, tx, in.UserID)
	if err != nil {
		return nil, err
	}

	key := dedupKey("reputation", in.Event, in.UserID, in.ContextRef)
	seen, err := r.eventLogged(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if seen {
		return replayResult(rep), nil
	}

	next := in.Event.NextScore(rep.ReputationScore)

	if err := r.insertEventLog(ctx, tx, in, rep.ReputationScore, next, key, uuid.NullUUID{}); err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			// Lost the race to a concurrent delivery of the same event.
			return replayResult(rep), nil
		}
		return nil, err
	}

	if err := r.updateReputation(ctx, tx, in.UserID, next, in.Event); err != nil {
		return nil, err
	}

	prevLevel := LevelForScore(rep.ReputationScore)
	newLevel := LevelForScore(next)
	if newLevel != prevLevel {
		if err := r.swapAdjustment(ctx, tx, in.UserID, newLevel, next); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &EventResult{
		PreviousScore:     rep.ReputationScore,
		NewScore:          next,
		Level:             newLevel,
		Applied:           true,
		AdjustmentChanged: newLevel != prevLevel,
	}, nil
}

func (r *postgresRepository) updateReputation(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, score int, event Event) error {
	query := `UPDATE user_reputation SET reputation_score = $1, updated_at = now()`
	if col := event.CounterColumn(); col != "" {
		// col comes from the closed event table, never from the wire
		query += `, ` + col + ` = ` + col + ` + 1`
	}
	query += ` WHERE user_id = $2`

	_, err := tx.ExecContext(ctx, query, score, userID)
	return err
}

// swapAdjustment retires the active adjustment and materializes the one
// the new level mandates, inside the caller's transaction. The partial
// unique index on (user_id) WHERE active backs the single-active
// invariant against writers that bypass the row lock.
func (r *postgresRepository) swapAdjustment(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, level Level, score int) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE reputation_adjustments
		SET active = false, deactivated_at = now()
		WHERE user_id = $1 AND active
	`, userID); err != nil {
		return err
	}

	template := AdjustmentForLevel(level, score)
	if template == nil {
		return nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO reputation_adjustments
			(id, user_id, adjustment_type, level, discovery_multiplier, feed_multiplier, suggestions_multiplier, trigger_score, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
	`, uuid.New(), userID, string(template.AdjustmentType), string(template.Level),
		template.DiscoveryMultiplier, template.FeedMultiplier, template.SuggestionsMultiplier, template.TriggerScore)
	return err
}

func (r *postgresRepository) OverrideScore(ctx context.Context, in OverrideInput) (*EventResult, error) {
	if in.NewScore < ScoreMin || in.NewScore > ScoreMax {
		return nil, ErrScoreOutOfRange
	}

	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rep, err := r.lockReputation(ctx, tx, in.UserID)
	if err != nil {
		return nil, err
	}

	logInput := ApplyEventInput{
		UserID:   in.UserID,
		Event:    EventAdminOverride,
		Metadata: map[string]string{"reason": in.Reason},
	}
	adminID := uuid.NullUUID{UUID: in.AdminID, Valid: true}
	if err := r.insertEventLog(ctx, tx, logInput, rep.ReputationScore, in.NewScore, "", adminID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE user_reputation SET reputation_score = $1, updated_at = now() WHERE user_id = $2
	`, in.NewScore, in.UserID); err != nil {
		return nil, err
	}

	prevLevel := LevelForScore(rep.ReputationScore)
	newLevel := LevelForScore(in.NewScore)
	if newLevel != prevLevel {
		if err := r.swapAdjustment(ctx, tx, in.UserID, newLevel, in.NewScore); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &EventResult{
		PreviousScore:     rep.ReputationScore,
		NewScore:          in.NewScore,
		Level:             newLevel,
		Applied:           true,
		AdjustmentChanged: newLevel != prevLevel,
	}, nil
}

func replayResult(rep *UserReputation) *EventResult {
	return &EventResult{
		PreviousScore: rep.ReputationScore,
		NewScore:      rep.ReputationScore,
		Level:         LevelForScore(rep.ReputationScore),
		Applied:       false,
	}
}

func dedupKey(domain string, event Event, userID uuid.UUID, contextRef string) string {
	if contextRef == "" {
		return ""
	}
	return domain + ":" + string(event) + ":" + userID.String() + ":" + contextRef
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

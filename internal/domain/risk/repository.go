package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ApplyEventInput carries one organic scoring event. ContextRef, when set,
// derives the dedup key that makes re-delivery of the same triggering
// action a no-op.
type ApplyEventInput struct {
	UserID        uuid.UUID
	Event         Event
	RelatedUserID uuid.NullUUID
	ContextRef    string
	Metadata      map[string]string
}

// OverrideInput carries a staff score override. Bypasses the weight table
// but runs through the same single-record transaction.
type OverrideInput struct {
	UserID   uuid.UUID
	NewScore int
	Reason   string
	AdminID  uuid.UUID
}

type Repository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserRiskProfile, error)
	Categorize(ctx context.Context, userID uuid.UUID, category SafetyCategory) (*UserRiskProfile, error)
	ApplyEvent(ctx context.Context, in ApplyEventInput) (*EventResult, error)
	OverrideScore(ctx context.Context, in OverrideInput) (*EventResult, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*UserRiskProfile, error) {
	var profile UserRiskProfile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM user_risk_profiles WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *postgresRepository) Categorize(ctx context.Context, userID uuid.UUID, category SafetyCategory) (*UserRiskProfile, error) {
	if !ValidCategory(category) {
		return nil, ErrInvalidCategory
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_risk_profiles (user_id, safety_category)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			safety_category = EXCLUDED.safety_category,
			last_updated = now()
	`, userID, string(category))
	if err != nil {
		return nil, err
	}
	return r.GetProfile(ctx, userID)
}

func (r *postgresRepository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockProfile creates the row if absent and takes the row lock that
// serializes concurrent writers on this user.
func (r *postgresRepository) lockProfile(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*UserRiskProfile, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_risk_profiles (user_id, safety_category)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, string(CategoryStandard)); err != nil {
		return nil, err
	}

	var profile UserRiskProfile
	err := tx.GetContext(ctx, &profile, `
		SELECT * FROM user_risk_profiles WHERE user_id = $1 FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	return &profile, nil
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
	if dedupKey == "" {
		dedup = nil
	} else {
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
		VALUES ($1, 'risk', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
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

	profile, err := r.lockProfile(ctx, tx, in.UserID)
	if err != nil {
		return nil, err
	}

	key := dedupKey("risk", in.Event, in.UserID, in.ContextRef)
	seen, err := r.eventLogged(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if seen {
		return replayResult(profile), nil
	}

	next := in.Event.NextScore(profile.RiskScore)

	if err := r.insertEventLog(ctx, tx, in, profile.RiskScore, next, key, uuid.NullUUID{}); err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			// Lost the race to a concurrent delivery of the same event;
			// the rollback discards this side's profile update.
			return replayResult(profile), nil
		}
		return nil, err
	}

	if err := r.updateProfile(ctx, tx, in.UserID, next, in.Event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &EventResult{
		PreviousScore: profile.RiskScore,
		NewScore:      next,
		Level:         LevelForScore(next),
		Category:      profile.SafetyCategory,
		Applied:       true,
	}, nil
}

func (r *postgresRepository) updateProfile(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, score int, event Event) error {
	query := `UPDATE user_risk_profiles SET risk_score = $1, last_updated = now()`
	if col := event.CounterColumn(); col != "" {
		// col comes from the closed event table, never from the wire
		query += `, ` + col + ` = ` + col + ` + 1`
	}
	if event.IsPositive() {
		query += `, last_positive_at = now()`
	} else {
		query += `, last_incident_at = now()`
	}
	query += ` WHERE user_id = $2`

	_, err := tx.ExecContext(ctx, query, score, userID)
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

	profile, err := r.lockProfile(ctx, tx, in.UserID)
	if err != nil {
		return nil, err
	}

	logInput := ApplyEventInput{
		UserID:   in.UserID,
		Event:    EventAdminOverride,
		Metadata: map[string]string{"reason": in.Reason},
	}
	adminID := uuid.NullUUID{UUID: in.AdminID, Valid: true}
	if err := r.insertEventLog(ctx, tx, logInput, profile.RiskScore, in.NewScore, "", adminID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE user_risk_profiles SET risk_score = $1, last_updated = now() WHERE user_id = $2
	`, in.NewScore, in.UserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &EventResult{
		PreviousScore: profile.RiskScore,
		NewScore:      in.NewScore,
		Level:         LevelForScore(in.NewScore),
		Category:      profile.SafetyCategory,
		Applied:       true,
	}, nil
}

func replayResult(profile *UserRiskProfile) *EventResult {
	return &EventResult{
		PreviousScore: profile.RiskScore,
		NewScore:      profile.RiskScore,
		Level:         LevelForScore(profile.RiskScore),
		Category:      profile.SafetyCategory,
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

package location

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	Insert(ctx context.Context, check *LocationSafetyCheck) error
	GetByID(ctx context.Context, id uuid.UUID) (*LocationSafetyCheck, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]LocationSafetyCheck, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]LocationSafetyCheck, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// Insert appends one audit record. Rows are never updated or deleted
// outside retention archival.
func (r *postgresRepository) Insert(ctx context.Context, check *LocationSafetyCheck) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO location_safety_checks
			(id, requested_by, booking_id, event_id, latitude, longitude, address, place_name,
			 venue_category, risk_level, enhanced_selfie_required, trusted_contact_required,
			 safety_timer_minutes, meeting_blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, check.ID, check.RequestedBy, check.BookingID, check.EventID, check.Latitude, check.Longitude,
		check.Address, check.PlaceName, check.VenueCategory, check.RiskLevel,
		check.EnhancedSelfieRequired, check.TrustedContactRequired,
		check.SafetyTimerMinutes, check.MeetingBlocked, check.CreatedAt)
	return err
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*LocationSafetyCheck, error) {
	var check LocationSafetyCheck
	err := r.db.GetContext(ctx, &check, `
		SELECT * FROM location_safety_checks WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]LocationSafetyCheck, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	checks := []LocationSafetyCheck{}
	err := r.db.SelectContext(ctx, &checks, `
		SELECT * FROM location_safety_checks
		WHERE requested_by = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return checks, nil
}

// ListBefore feeds the retention archiver: oldest entries first,
// bounded batches.
func (r *postgresRepository) ListBefore(ctx context.Context, before time.Time, limit int) ([]LocationSafetyCheck, error) {
	if limit <= 0 {
		limit = 500
	}

	checks := []LocationSafetyCheck{}
	err := r.db.SelectContext(ctx, &checks, `
		SELECT * FROM location_safety_checks
		WHERE created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, err
	}
	return checks, nil
}

// DeleteByIDs removes archived entries. Callers delete only what they
// have durably exported.
func (r *postgresRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM location_safety_checks WHERE id = ANY($1)`, pq.Array(strIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

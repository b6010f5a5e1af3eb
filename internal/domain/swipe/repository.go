package swipe

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TrackInput describes one swipe as reported by the swipe system.
// WasBlockedByTarget reflects the block state at swipe time and is
// sticky once seen true.
type TrackInput struct {
	SwiperID           uuid.UUID
	TargetID           uuid.UUID
	IsRightSwipe       bool
	MatchHappened      bool
	WasBlockedByTarget bool
}

// TrackOutcome pairs the updated row with the permanence transition
type TrackOutcome struct {
	Tracking        *SwipePatternTracking
	BecamePermanent bool
}

type Repository interface {
	GetTracking(ctx context.Context, swiperID, targetID uuid.UUID) (*SwipePatternTracking, error)
	Track(ctx context.Context, in TrackInput) (*TrackOutcome, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetTracking(ctx context.Context, swiperID, targetID uuid.UUID) (*SwipePatternTracking, error) {
	var tracking SwipePatternTracking
	err := r.db.GetContext(ctx, &tracking, `
		SELECT * FROM swipe_pattern_tracking WHERE swiper_id = $1 AND target_id = $2
	`, swiperID, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tracking, nil
}

// Track records one right swipe under the pair row lock and returns the
// updated record. Left swipes never reach the repository.
func (r *postgresRepository) Track(ctx context.Context, in TrackInput) (*TrackOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO swipe_pattern_tracking (swiper_id, target_id)
		VALUES ($1, $2)
		ON CONFLICT (swiper_id, target_id) DO NOTHING
	`, in.SwiperID, in.TargetID); err != nil {
		return nil, err
	}

	var tracking SwipePatternTracking
	if err := tx.GetContext(ctx, &tracking, `
		SELECT * FROM swipe_pattern_tracking WHERE swiper_id = $1 AND target_id = $2 FOR UPDATE
	`, in.SwiperID, in.TargetID); err != nil {
		return nil, err
	}

	next := advance(&tracking, in, time.Now())

	if _, err := tx.ExecContext(ctx, `
		UPDATE swipe_pattern_tracking SET
			total_right_swipes = $1,
			no_match_count = $2,
			hidden_until = $3,
			hidden_days = $4,
			permanently_hidden = $5,
			was_blocked_by_target = $6,
			updated_at = now()
		WHERE swiper_id = $7 AND target_id = $8
	`, next.TotalRightSwipes, next.NoMatchCount, next.HiddenUntil, next.HiddenDays,
		next.PermanentlyHidden, next.WasBlockedByTarget, next.SwiperID, next.TargetID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &TrackOutcome{
		Tracking:        next,
		BecamePermanent: next.PermanentlyHidden && !tracking.PermanentlyHidden,
	}, nil
}

// advance applies one right swipe to a locked pair row. A match is
// forgiving: it clears the streak and lifts a timed hide. Reaching the
// threshold imposes 30 days, 90 once the target has ever blocked the
// swiper, and permanent when a hide was already imposed before.
func advance(tracking *SwipePatternTracking, in TrackInput, now time.Time) *SwipePatternTracking {
	next := *tracking
	next.TotalRightSwipes++
	if in.WasBlockedByTarget {
		next.WasBlockedByTarget = true
	}

	if in.MatchHappened {
		next.NoMatchCount = 0
		if !next.PermanentlyHidden {
			next.HiddenUntil = sql.NullTime{}
		}
		return &next
	}

	next.NoMatchCount++
	if next.NoMatchCount < hideThreshold {
		return &next
	}

	if next.HiddenDays != 0 {
		next.PermanentlyHidden = true
		next.HiddenUntil = sql.NullTime{}
		return &next
	}

	days := normalHideDays
	if next.WasBlockedByTarget {
		days = blockedHideDays
	}
	next.HiddenDays = days
	next.HiddenUntil = sql.NullTime{Time: now.Add(time.Duration(days) * 24 * time.Hour), Valid: true}
	next.NoMatchCount = 0
	return &next
}

package swipe

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	// unmatched right-swipes on the same person before a hide
	hideThreshold = 3

	normalHideDays  = 30
	blockedHideDays = 90
)

// SwipePatternTracking is the per ordered pair swiper->target record.
// hidden_days remembers that a hide was ever imposed: accumulating to
// the threshold again after one makes the hide permanent.
type SwipePatternTracking struct {
	SwiperID           uuid.UUID    `db:"swiper_id" json:"swiper_id"`
	TargetID           uuid.UUID    `db:"target_id" json:"target_id"`
	TotalRightSwipes   int          `db:"total_right_swipes" json:"total_right_swipes"`
	NoMatchCount       int          `db:"no_match_count" json:"no_match_count"`
	HiddenUntil        sql.NullTime `db:"hidden_until" json:"hidden_until,omitempty"`
	HiddenDays         int          `db:"hidden_days" json:"hidden_days"`
	PermanentlyHidden  bool         `db:"permanently_hidden" json:"permanently_hidden"`
	WasBlockedByTarget bool         `db:"was_blocked_by_target" json:"was_blocked_by_target"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// HiddenAt reports whether the target is hidden from the swiper at the
// given instant. Expired timed hides count as lifted without a write.
func (t *SwipePatternTracking) HiddenAt(now time.Time) bool {
	if t.PermanentlyHidden {
		return true
	}
	return t.HiddenUntil.Valid && now.Before(t.HiddenUntil.Time)
}

// TrackResult reports the pair's visibility after one tracked swipe
type TrackResult struct {
	Hidden      bool         `json:"hidden"`
	HiddenUntil sql.NullTime `json:"hidden_until,omitempty"`
	Permanent   bool         `json:"permanent"`
}

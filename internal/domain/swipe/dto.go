package swipe

import "github.com/google/uuid"

// TrackRequest for POST /swipes/actions
type TrackRequest struct {
	SwiperID           uuid.UUID `json:"swiper_id" validate:"required"`
	TargetID           uuid.UUID `json:"target_id" validate:"required"`
	IsRightSwipe       bool      `json:"is_right_swipe"`
	MatchHappened      bool      `json:"match_happened"`
	WasBlockedByTarget bool      `json:"was_blocked_by_target"`
}

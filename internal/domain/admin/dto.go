package admin

import (
	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/booking"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/location"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/reputation"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/trust"
)

// UserTrustView is the full staff view of one user: raw risk, raw
// reputation, the active ranking adjustment with its recent history,
// and the blended assessment.
type UserTrustView struct {
	UserID            uuid.UUID                         `json:"user_id"`
	Risk              *risk.UserRiskProfile             `json:"risk"`
	Reputation        *reputation.UserReputation        `json:"reputation"`
	Adjustment        *reputation.ReputationAdjustment  `json:"adjustment,omitempty"`
	AdjustmentHistory []reputation.ReputationAdjustment `json:"adjustment_history,omitempty"`
	Effective         *trust.Assessment                 `json:"effective"`
}

// BlockReleaseResponse reports a released pair
type BlockReleaseResponse struct {
	History *booking.BookingAttemptHistory `json:"history"`
}

// LocationChecksResponse for GET /trust/location-checks
type LocationChecksResponse struct {
	Items []location.LocationSafetyCheck `json:"items"`
}

// AuditListResponse for GET /trust/audit
type AuditListResponse struct {
	Items []*AuditLog `json:"items"`
	Total int         `json:"total"`
}

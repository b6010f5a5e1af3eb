package location

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/risk"
)

// RiskTier classifies a proposed meeting place
type RiskTier string

const (
	TierSafe     RiskTier = "SAFE"
	TierElevated RiskTier = "ELEVATED"
	TierHigh     RiskTier = "HIGH"
	TierBlocked  RiskTier = "BLOCKED"
)

// Venue categories vetted as public meeting places
var safeCategories = map[string]bool{
	"cafe":       true,
	"restaurant": true,
	"bar":        true,
	"park":       true,
	"museum":     true,
	"library":    true,
}

// TierForCategory maps a resolved venue category to its tier. Private
// or overnight venues (hotel, lodging, private_residence) and anything
// else the platform has not vetted as public count as ELEVATED, not
// SAFE.
func TierForCategory(category string, found bool) RiskTier {
	if !found {
		return TierHigh
	}
	if safeCategories[category] {
		return TierSafe
	}
	return TierElevated
}

// timer applied at HIGH regardless of category
const highTierTimerMinutes = 30

// Protections are the measures required before the meeting may start.
// They accumulate tier over tier and a stricter safety category can only
// tighten them.
type Protections struct {
	EnhancedSelfieRequired bool `json:"enhanced_selfie_required"`
	TrustedContactRequired bool `json:"trusted_contact_required"`
	SafetyTimerMinutes     int  `json:"safety_timer_minutes"`
	MeetingBlocked         bool `json:"meeting_blocked"`
}

// ProtectionsFor derives the measures for a tier under a safety category
// profile. The profile shortens the timer and may pull the trusted
// contact forward to ELEVATED; it never loosens the tier baseline.
func ProtectionsFor(tier RiskTier, profile risk.CategoryProfile) Protections {
	var p Protections
	switch tier {
	case TierSafe:
		return p
	case TierElevated:
		p.EnhancedSelfieRequired = true
		p.TrustedContactRequired = profile.TrustedContactAtElevated
		p.SafetyTimerMinutes = profile.SafetyTimerMinutes
	case TierHigh:
		p.EnhancedSelfieRequired = true
		p.TrustedContactRequired = true
		p.SafetyTimerMinutes = minTimer(profile.SafetyTimerMinutes, highTierTimerMinutes)
	case TierBlocked:
		p.EnhancedSelfieRequired = true
		p.TrustedContactRequired = true
		p.SafetyTimerMinutes = minTimer(profile.SafetyTimerMinutes, highTierTimerMinutes)
		p.MeetingBlocked = true
	}
	return p
}

func minTimer(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// LocationSafetyCheck is the immutable audit record of one assessment
type LocationSafetyCheck struct {
	ID                     uuid.UUID      `db:"id" json:"id"`
	RequestedBy            uuid.UUID      `db:"requested_by" json:"requested_by"`
	BookingID              sql.NullString `db:"booking_id" json:"booking_id,omitempty"`
	EventID                sql.NullString `db:"event_id" json:"event_id,omitempty"`
	Latitude               float64        `db:"latitude" json:"latitude"`
	Longitude              float64        `db:"longitude" json:"longitude"`
	Address                sql.NullString `db:"address" json:"address,omitempty"`
	PlaceName              sql.NullString `db:"place_name" json:"place_name,omitempty"`
	VenueCategory          sql.NullString `db:"venue_category" json:"venue_category,omitempty"`
	RiskLevel              RiskTier       `db:"risk_level" json:"risk_level"`
	EnhancedSelfieRequired bool           `db:"enhanced_selfie_required" json:"enhanced_selfie_required"`
	TrustedContactRequired bool           `db:"trusted_contact_required" json:"trusted_contact_required"`
	SafetyTimerMinutes     int            `db:"safety_timer_minutes" json:"safety_timer_minutes"`
	MeetingBlocked         bool           `db:"meeting_blocked" json:"meeting_blocked"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
}

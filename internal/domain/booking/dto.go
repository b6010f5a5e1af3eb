package booking

import "github.com/google/uuid"

// RecordOutcomeRequest for POST /bookings/outcomes
type RecordOutcomeRequest struct {
	RequesterID uuid.UUID  `json:"requester_id" validate:"required"`
	TargetID    uuid.UUID  `json:"target_id" validate:"required"`
	Outcome     string     `json:"outcome" validate:"required,booking_outcome"`
	BookingID   string     `json:"booking_id" validate:"required,max=64"`
	PanicBy     *uuid.UUID `json:"panic_by,omitempty"`
}

// ReleaseBlockRequest for POST /admin/trust/booking-blocks/release
type ReleaseBlockRequest struct {
	RequesterID uuid.UUID `json:"requester_id" validate:"required"`
	TargetID    uuid.UUID `json:"target_id" validate:"required"`
	Reason      string    `json:"reason" validate:"required,min=3,max=500"`
}

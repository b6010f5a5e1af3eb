package location

import "github.com/google/uuid"

// AssessRequest for POST /locations/assess
type AssessRequest struct {
	RequestedBy uuid.UUID `json:"requested_by" validate:"required"`
	Latitude    float64   `json:"latitude" validate:"latitude"`
	Longitude   float64   `json:"longitude" validate:"longitude"`
	Address     string    `json:"address" validate:"omitempty,max=500"`
	PlaceName   string    `json:"place_name" validate:"omitempty,max=255"`
	BookingID   string    `json:"booking_id" validate:"omitempty,max=64"`
	EventID     string    `json:"event_id" validate:"omitempty,max=64"`
}

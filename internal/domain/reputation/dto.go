package reputation

import "github.com/google/uuid"

// Hint is the positive-only user-facing surface. Scores and limiters
// never leave the service.
type Hint struct {
	HasHint bool   `json:"has_hint"`
	Message string `json:"message,omitempty"`
}

// ApplyEventRequest for POST /reputation/events
type ApplyEventRequest struct {
	UserID        uuid.UUID         `json:"user_id" validate:"required"`
	Event         string            `json:"event" validate:"required,max=64"`
	RelatedUserID *uuid.UUID        `json:"related_user_id,omitempty"`
	ContextRef    string            `json:"context_ref" validate:"omitempty,max=255"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// OverrideRequest for POST /admin/trust/reputation-overrides
type OverrideRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	NewScore int       `json:"new_score" validate:"gte=0,lte=100"`
	Reason   string    `json:"reason" validate:"required,min=3,max=500"`
}

// MultiplierResponse for GET /reputation/users/{id}/multiplier
type MultiplierResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Context    string    `json:"context"`
	Multiplier float64   `json:"multiplier"`
}

package risk

import "github.com/google/uuid"

// ApplyEventRequest for POST /risk/events
type ApplyEventRequest struct {
	UserID        uuid.UUID         `json:"user_id" validate:"required"`
	Event         string            `json:"event" validate:"required,max=64"`
	RelatedUserID *uuid.UUID        `json:"related_user_id,omitempty"`
	ContextRef    string            `json:"context_ref" validate:"omitempty,max=255"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CategorizeRequest for PUT /risk/users/{id}/category
type CategorizeRequest struct {
	Category string `json:"category" validate:"required,safety_category"`
}

// OverrideRequest for POST /admin/trust/risk-overrides
type OverrideRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	NewScore int       `json:"new_score" validate:"gte=0,lte=1000"`
	Reason   string    `json:"reason" validate:"required,min=3,max=500"`
}

package feedback

import "github.com/google/uuid"

// SubmitRequest for POST /events/feedback
type SubmitRequest struct {
	GiverID    uuid.UUID `json:"giver_id" validate:"required"`
	ReceiverID uuid.UUID `json:"receiver_id" validate:"required"`
	Positive   bool      `json:"positive"`
	VibeRating *int      `json:"vibe_rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	ShowedUp   *bool     `json:"showed_up" validate:"required"`
	ContextID  string    `json:"context_id" validate:"required,max=64"`
	Comment    string    `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// AccountCreatedRequest for POST /events/account-created
type AccountCreatedRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

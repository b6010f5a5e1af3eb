package risk

import "errors"

var (
	ErrUnknownEvent    = errors.New("unknown risk event kind")
	ErrInvalidCategory = errors.New("invalid safety category")
	ErrScoreOutOfRange = errors.New("risk score out of range")
	ErrDuplicateEvent  = errors.New("duplicate event application")
	ErrScoringDegraded = errors.New("risk scoring temporarily unavailable")
)

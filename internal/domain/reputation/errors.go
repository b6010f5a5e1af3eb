package reputation

import "errors"

var (
	ErrUnknownEvent    = errors.New("unknown reputation event kind")
	ErrScoreOutOfRange = errors.New("reputation score outside [0,100]")
	ErrDuplicateEvent  = errors.New("reputation event already applied")
	ErrScoringDegraded = errors.New("reputation scoring degraded, event dropped")
)

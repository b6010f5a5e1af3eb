package booking

import "errors"

var (
	ErrUnknownOutcome  = errors.New("unknown booking outcome")
	ErrDuplicateRecord = errors.New("booking outcome already recorded")
	ErrPanicByRequired = errors.New("panic_by is required for PANIC_ENDED outcomes")
	ErrSelfBooking     = errors.New("requester and target must differ")
	ErrNotBlocked      = errors.New("pair is not permanently blocked")
)

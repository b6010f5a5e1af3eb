package swipe

import "errors"

// ErrTrackingDegraded means the swipe was seen but not recorded. The
// swipe itself already happened, so callers treat this as accepted.
var ErrTrackingDegraded = errors.New("swipe tracking degraded, pattern not recorded")

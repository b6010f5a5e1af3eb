package feedback

import "errors"

var ErrSelfFeedback = errors.New("feedback about yourself is not accepted")

package admin

import "errors"

var (
	ErrAdminNotFound = errors.New("admin not found")
	ErrEmailTaken    = errors.New("email already in use")
)

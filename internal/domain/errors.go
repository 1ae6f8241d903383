package domain

import "errors"

// Request-level errors, mapped to HTTP status codes by the api layer.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicate          = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("too many failed attempts")
	ErrUnavailable        = errors.New("service unavailable")
)

// Note lifecycle errors
var (
	ErrInvalidTransition = errors.New("invalid note state transition")
)

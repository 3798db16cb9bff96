package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("resource not found")
	ErrPickLocked            = errors.New("pick is locked")
	ErrNoConfidenceSlot      = errors.New("no confidence slot available")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

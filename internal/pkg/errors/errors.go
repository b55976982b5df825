package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is a sentinel for operations that lost a write race
	// and are safe to retry.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable is a sentinel for an unreachable backing store.
	ErrUnavailable = errors.New("store unavailable")
)

package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrAlreadyCancelled is returned by guarded writes that found the
	// booking cancelled.
	ErrAlreadyCancelled = errors.New("booking already cancelled")
)

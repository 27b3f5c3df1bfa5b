package session

import "errors"

// Sentinel errors for session validation.
var (
	ErrInvariant       = errors.New("session invariant violated")
	ErrInvalidQuestion = errors.New("invalid question")
)

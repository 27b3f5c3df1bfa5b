package engine

import "errors"

// Sentinel errors for assessment engine calls.
var (
	ErrInvalidAnswer   = errors.New("invalid answer")
	ErrUnknownSession  = errors.New("unknown engine session")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrUnavailable     = errors.New("assessment engine unavailable")
)

package workflow

import "errors"

// Error taxonomy returned by workflow operations. Client-caused errors
// (NotFound, InvalidState, Validation, InvalidAnswer) never mutate state.
var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidState      = errors.New("invalid session state")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidAnswer     = errors.New("invalid answer")
	ErrEngineUnavailable = errors.New("assessment engine unavailable")
	ErrStoreConflict     = errors.New("session store conflict")
)

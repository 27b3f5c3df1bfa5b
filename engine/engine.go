// Package engine defines the contract with the external assessment engine
// that chooses questions and derives a suggested code from the answers.
// Each conversation is keyed by session identifier and held by the engine
// until it is explicitly released with Cleanup.
package engine

import (
	"context"

	"github.com/tailored-agentic-units/intake/session"
)

// Condition is one candidate in a differential.
type Condition struct {
	Name  string   `json:"name"`
	Codes []string `json:"icd10_codes"`
}

// Evaluation is the engine's verdict for a conversation. Differential is
// ordered; the first entry is authoritative.
type Evaluation struct {
	Differential []Condition `json:"differential"`
	AuditToken   string      `json:"audit_token"`
}

// Engine is the assessment engine collaborator. A nil question from Start or
// Answer means the engine has nothing further to ask.
type Engine interface {
	// Start opens a conversation for the session and returns the first question.
	Start(ctx context.Context, sessionID, chiefComplaint string) (*session.Question, error)
	// Answer records an answer to questionID and returns the next question.
	// Returns ErrInvalidAnswer when the answer does not fit the question.
	Answer(ctx context.Context, sessionID, questionID, answer string) (*session.Question, error)
	// Evaluate derives the differential from the full answer trail.
	Evaluate(ctx context.Context, sessionID string) (Evaluation, error)
	// Cleanup releases the conversation. Releasing an unknown session is not
	// an error.
	Cleanup(ctx context.Context, sessionID string) error
}

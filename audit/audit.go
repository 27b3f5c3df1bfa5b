// Package audit publishes one record per clinician review decision so the
// decision trail survives outside the session store.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/intake/session"
)

// Record describes a terminal review decision. Clinician notes are not
// carried; the session store remains the source of the full review.
type Record struct {
	ID            string           `json:"record_id"`
	SessionID     string           `json:"session_id"`
	ClinicianID   string           `json:"clinician_id"`
	Decision      session.Decision `json:"decision"`
	SuggestedCode string           `json:"suggested_icd10,omitempty"`
	FinalCode     string           `json:"final_icd10"`
	AuditToken    string           `json:"audit_token,omitempty"`
	ReviewedAt    time.Time        `json:"reviewed_at"`
}

// NewRecord builds the audit record for a reviewed session. It returns false
// if the session carries no review.
func NewRecord(s *session.Session) (Record, bool) {
	if s.Review == nil {
		return Record{}, false
	}
	r := Record{
		ID:          uuid.Must(uuid.NewV7()).String(),
		SessionID:   s.ID,
		ClinicianID: s.Review.ClinicianID,
		Decision:    s.Review.Decision,
		FinalCode:   s.Review.FinalCode,
		ReviewedAt:  s.Review.ReviewedAt,
	}
	if s.Suggestion != nil {
		r.SuggestedCode = s.Suggestion.Code
		r.AuditToken = s.Suggestion.AuditToken
	}
	return r, true
}

// Sink receives review decision records.
type Sink interface {
	Publish(ctx context.Context, r Record) error
	Close() error
}

// NoOp discards every record.
type NoOp struct{}

func (NoOp) Publish(ctx context.Context, r Record) error { return nil }

func (NoOp) Close() error { return nil }

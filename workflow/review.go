package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tailored-agentic-units/intake/audit"
	"github.com/tailored-agentic-units/intake/observability"
	"github.com/tailored-agentic-units/intake/session"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Minimum justification lengths, counted in characters after trimming.
// Overriding a suggestion demands more than accepting it.
const (
	MinAcceptNotesLength  = 10
	MinRejectReasonLength = 20
	MinReplacementLength  = 3
)

// ReviewResult is the outcome of a clinician decision.
type ReviewResult struct {
	SessionID  string           `json:"session_id"`
	Decision   session.Decision `json:"decision"`
	FinalCode  string           `json:"final_icd10"`
	ReviewedBy string           `json:"reviewed_by"`
	ReviewedAt time.Time        `json:"reviewed_at"`
}

// Accept confirms the suggested code as final.
func (w *Workflow) Accept(ctx context.Context, id, clinicianID, notes string) (res *ReviewResult, err error) {
	ctx, span := w.startSpan(ctx, "Accept", id)
	defer w.finish(ctx, span, "workflow.Accept", &err)

	clinician, err := requireClinician(clinicianID)
	if err != nil {
		return nil, err
	}
	if err := requireText("notes", notes, MinAcceptNotesLength); err != nil {
		return nil, err
	}

	return w.resolve(ctx, id, "workflow.Accept", func(s *session.Session) (*session.Review, error) {
		if s.Suggestion == nil || s.Suggestion.Code == "" {
			return nil, fmt.Errorf("%w: no suggested code to accept", ErrInvalidState)
		}
		return &session.Review{
			ClinicianID: clinician,
			Decision:    session.DecisionAccepted,
			FinalCode:   s.Suggestion.Code,
			Notes:       notes,
		}, nil
	})
}

// RejectAndReplace overrides the suggestion with the clinician's code. A
// suggestion need not be present.
func (w *Workflow) RejectAndReplace(ctx context.Context, id, clinicianID, replacementCode, reason string) (res *ReviewResult, err error) {
	ctx, span := w.startSpan(ctx, "RejectAndReplace", id)
	defer w.finish(ctx, span, "workflow.RejectAndReplace", &err)

	clinician, err := requireClinician(clinicianID)
	if err != nil {
		return nil, err
	}
	code, err := NormalizeCode(replacementCode)
	if err != nil {
		return nil, err
	}
	if err := requireText("reason", reason, MinRejectReasonLength); err != nil {
		return nil, err
	}

	return w.resolve(ctx, id, "workflow.RejectAndReplace", func(s *session.Session) (*session.Review, error) {
		return &session.Review{
			ClinicianID: clinician,
			Decision:    session.DecisionRejectedReplaced,
			FinalCode:   code,
			Notes:       reason,
		}, nil
	})
}

// resolve applies a review decision under the session lock. decide runs
// against the loaded session after the status check; the review it returns
// is written together with the status change in a single update.
func (w *Workflow) resolve(ctx context.Context, id, source string, decide func(*session.Session) (*session.Review, error)) (*ReviewResult, error) {
	unlock := w.locks.Lock(id)
	defer unlock()

	s, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanTransition(s.Status, session.StatusReviewed) {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}

	review, err := decide(s)
	if err != nil {
		return nil, err
	}
	review.ReviewedAt = w.now()

	from := s.Status
	s.Review = review
	s.Status = session.StatusReviewed
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}

	eventType := EventReviewAccept
	if review.Decision == session.DecisionRejectedReplaced {
		eventType = EventReviewReject
	}
	w.emit(ctx, eventType, observability.LevelInfo, source, map[string]any{
		"session_id":               id,
		"clinician_id":             review.ClinicianID,
		"from":                     string(from),
		"notes_length":             TextLength(review.Notes),
		observability.KeyFinalCode: review.FinalCode,
	})

	w.publish(ctx, s, source)

	return &ReviewResult{
		SessionID:  id,
		Decision:   review.Decision,
		FinalCode:  review.FinalCode,
		ReviewedBy: review.ClinicianID,
		ReviewedAt: review.ReviewedAt,
	}, nil
}

// publish hands the decision to the audit sink. The review is already
// durable, so delivery failures are reported but do not fail the request.
func (w *Workflow) publish(ctx context.Context, s *session.Session, source string) {
	record, ok := audit.NewRecord(s)
	if !ok {
		return
	}
	if err := w.audit.Publish(ctx, record); err != nil {
		w.emit(ctx, EventAuditError, observability.LevelError, source, map[string]any{
			"session_id": s.ID,
			"record_id":  record.ID,
			"error":      err.Error(),
		})
	}
}

// NormalizeCode trims and upper-cases an ICD-10 code and checks that it is
// plausible: at least three characters and starting with a letter.
func NormalizeCode(code string) (string, error) {
	c := cases.Upper(language.Und).String(strings.TrimSpace(norm.NFC.String(code)))
	if c == "" {
		return "", fmt.Errorf("%w: replacement code is required", ErrValidation)
	}
	if n := utf8.RuneCountInString(c); n < MinReplacementLength {
		return "", fmt.Errorf("%w: replacement code must be at least %d characters", ErrValidation, MinReplacementLength)
	}
	if first := c[0]; first < 'A' || first > 'Z' {
		return "", fmt.Errorf("%w: replacement code must start with a letter", ErrValidation)
	}
	return c, nil
}

// TextLength counts characters the way length policies do: NFC-normalized
// and trimmed.
func TextLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(norm.NFC.String(s)))
}

func requireClinician(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: clinician id is required", ErrValidation)
	}
	return id, nil
}

func requireText(field, value string, minLen int) error {
	if n := TextLength(value); n < minLen {
		return fmt.Errorf("%w: %s must be at least %d characters (got %d)", ErrValidation, field, minLen, n)
	}
	return nil
}

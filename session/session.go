// Package session defines the patient assessment session and the rules for
// how its status may advance from intake through clinician review.
package session

import (
	"fmt"
	"slices"
	"time"
)

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusInProgress    Status = "in_progress"    // patient answering questions
	StatusPendingReview Status = "pending_review" // waiting for a clinician
	StatusReviewed      Status = "reviewed"       // clinician has decided
)

// Statuses returns every defined status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusInProgress, StatusPendingReview, StatusReviewed}
}

// Valid reports whether s is a defined status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses(), s)
}

// CanTransition reports whether a session may move from one status to
// another. Transitions only ever advance a single step.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusInProgress:
		return to == StatusPendingReview
	case StatusPendingReview:
		return to == StatusReviewed
	default:
		return false
	}
}

// Decision is the kind of clinician resolution recorded on a reviewed session.
type Decision string

const (
	DecisionAccepted         Decision = "accepted"
	DecisionRejectedReplaced Decision = "rejected_replaced"
)

// PatientResponse is a single answer exactly as the patient gave it.
type PatientResponse struct {
	QuestionID   string    `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Answer       string    `json:"answer"`
	Timestamp    time.Time `json:"timestamp"`
}

// Suggestion is the single top-ranked code produced by evaluation.
type Suggestion struct {
	Code          string `json:"suggested_icd10"`
	ConditionName string `json:"suggested_condition_name"`
	AuditToken    string `json:"audit_token,omitempty"`
}

// Review holds the outcome of a clinician decision. It is written once, as a
// whole, when the session becomes reviewed.
type Review struct {
	ReviewedAt  time.Time `json:"reviewed_at"`
	ClinicianID string    `json:"clinician_id"`
	Decision    Decision  `json:"decision"`
	FinalCode   string    `json:"final_icd10"`
	Notes       string    `json:"clinician_notes"`
}

// Session is a patient assessment. Responses are append-only and the
// ChiefComplaint never changes after creation.
type Session struct {
	ID              string            `json:"session_id"`
	Status          Status            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	ChiefComplaint  string            `json:"chief_complaint"`
	Responses       []PatientResponse `json:"patient_responses"`
	QuestionsAsked  int               `json:"questions_asked"`
	CurrentQuestion *Question         `json:"current_question,omitempty"`
	// AnswerPending is set while the latest response has been recorded but
	// not yet acknowledged by the assessment engine.
	AnswerPending bool        `json:"answer_pending,omitempty"`
	Suggestion    *Suggestion `json:"suggestion,omitempty"`
	Review        *Review     `json:"review,omitempty"`
}

// New creates an in-progress session.
func New(id, chiefComplaint string, createdAt time.Time) *Session {
	return &Session{
		ID:             id,
		Status:         StatusInProgress,
		CreatedAt:      createdAt,
		ChiefComplaint: chiefComplaint,
		Responses:      []PatientResponse{},
	}
}

// CurrentQuestionID returns the active question identifier, or "" when no
// question is active.
func (s *Session) CurrentQuestionID() string {
	if s.CurrentQuestion == nil {
		return ""
	}
	return s.CurrentQuestion.ID
}

// LastResponse returns the most recent response, if any.
func (s *Session) LastResponse() (PatientResponse, bool) {
	if len(s.Responses) == 0 {
		return PatientResponse{}, false
	}
	return s.Responses[len(s.Responses)-1], true
}

// RecordResponse appends a response and counts the question as asked.
func (s *Session) RecordResponse(r PatientResponse) {
	s.Responses = append(s.Responses, r)
	s.QuestionsAsked++
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Responses = slices.Clone(s.Responses)
	if c.Responses == nil {
		c.Responses = []PatientResponse{}
	}
	if s.CurrentQuestion != nil {
		q := s.CurrentQuestion.Clone()
		c.CurrentQuestion = &q
	}
	if s.Suggestion != nil {
		sg := *s.Suggestion
		c.Suggestion = &sg
	}
	if s.Review != nil {
		r := *s.Review
		c.Review = &r
	}
	return &c
}

// CheckInvariants verifies the structural rules every persisted session must
// satisfy regardless of how it reached its current status.
func (s *Session) CheckInvariants() error {
	if s.ID == "" {
		return fmt.Errorf("%w: empty session id", ErrInvariant)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvariant, s.Status)
	}
	if len(s.Responses) != s.QuestionsAsked {
		return fmt.Errorf("%w: %d responses but %d questions asked", ErrInvariant, len(s.Responses), s.QuestionsAsked)
	}

	switch s.Status {
	case StatusInProgress:
		if s.Suggestion != nil {
			return fmt.Errorf("%w: suggestion present while in progress", ErrInvariant)
		}
		if s.Review != nil {
			return fmt.Errorf("%w: review present while in progress", ErrInvariant)
		}
	case StatusPendingReview:
		if s.CurrentQuestion != nil {
			return fmt.Errorf("%w: active question after intake ended", ErrInvariant)
		}
		if s.Review != nil {
			return fmt.Errorf("%w: review present while pending review", ErrInvariant)
		}
	case StatusReviewed:
		if s.Review == nil {
			return fmt.Errorf("%w: reviewed without review outcome", ErrInvariant)
		}
		if s.CurrentQuestion != nil {
			return fmt.Errorf("%w: active question after intake ended", ErrInvariant)
		}
		switch s.Review.Decision {
		case DecisionAccepted:
			if s.Suggestion == nil || s.Suggestion.Code != s.Review.FinalCode {
				return fmt.Errorf("%w: accepted code differs from suggestion", ErrInvariant)
			}
		case DecisionRejectedReplaced:
		default:
			return fmt.Errorf("%w: unknown decision %q", ErrInvariant, s.Review.Decision)
		}
		if s.Review.ClinicianID == "" || s.Review.FinalCode == "" || s.Review.ReviewedAt.IsZero() {
			return fmt.Errorf("%w: partial review outcome", ErrInvariant)
		}
	}

	return nil
}

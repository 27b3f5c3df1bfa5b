package session

import (
	"fmt"
	"slices"
	"strings"
)

// QuestionType tags how an answer to a question is interpreted.
type QuestionType string

const (
	QuestionBoolean     QuestionType = "boolean"
	QuestionCategorical QuestionType = "categorical"
	QuestionNumeric     QuestionType = "numeric"
	QuestionDuration    QuestionType = "duration"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionBoolean, QuestionCategorical, QuestionNumeric, QuestionDuration:
		return true
	}
	return false
}

// Question is one prompt presented to the patient.
type Question struct {
	ID      string       `json:"question_id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"question_type"`
	Options []string     `json:"options,omitempty"`
}

// Validate checks that the question is well formed. Categorical questions
// must carry at least one option label.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: empty question id", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question %s has no text", ErrInvalidQuestion, q.ID)
	}
	if !q.Type.Valid() {
		return fmt.Errorf("%w: question %s has unknown type %q", ErrInvalidQuestion, q.ID, q.Type)
	}
	if q.Type == QuestionCategorical && len(q.Options) == 0 {
		return fmt.Errorf("%w: categorical question %s has no options", ErrInvalidQuestion, q.ID)
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: question %s has a blank option", ErrInvalidQuestion, q.ID)
		}
	}
	return nil
}

// Clone returns a copy that shares no option storage with q.
func (q Question) Clone() Question {
	q.Options = slices.Clone(q.Options)
	return q
}

package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tailored-agentic-units/intake/session"
)

var booleanAnswers = map[string]bool{
	"yes": true, "no": true, "true": true, "false": true, "y": true, "n": true,
}

// ValidateAnswer checks an answer against the question's type and options.
// When options are present the answer must match one of them, ignoring case
// and surrounding space.
func ValidateAnswer(q session.Question, answer string) error {
	a := strings.TrimSpace(answer)
	if a == "" {
		return fmt.Errorf("%w: empty answer to %s", ErrInvalidAnswer, q.ID)
	}

	if len(q.Options) > 0 {
		for _, opt := range q.Options {
			if strings.EqualFold(strings.TrimSpace(opt), a) {
				return nil
			}
		}
		return fmt.Errorf("%w: %q is not an option for %s", ErrInvalidAnswer, answer, q.ID)
	}

	switch q.Type {
	case session.QuestionBoolean:
		if !booleanAnswers[strings.ToLower(a)] {
			return fmt.Errorf("%w: %q is not yes or no", ErrInvalidAnswer, answer)
		}
	case session.QuestionNumeric:
		if _, err := strconv.ParseFloat(a, 64); err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidAnswer, answer)
		}
	case session.QuestionCategorical:
		return fmt.Errorf("%w: %s has no options to choose from", ErrInvalidAnswer, q.ID)
	}
	return nil
}

package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/intake/session"
)

// Script is a fixed, ordered question flow with a fixed differential. It is
// the deterministic engine used for demos and tests.
type Script struct {
	Version      string             `json:"version"`
	Questions    []session.Question `json:"questions"`
	Differential []Condition        `json:"differential"`
}

// Validate checks that every question is well formed and identifiers are
// unique.
func (s Script) Validate() error {
	seen := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id: %s", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

// LoadScript reads a Script from a JSON file.
func LoadScript(filename string) (Script, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script file: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a JSON flow document.
func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("failed to parse script file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Script{}, fmt.Errorf("invalid script: %w", err)
	}
	return s, nil
}

type conversation struct {
	chiefComplaint string
	answers        map[string]string
}

// Scripted is an Engine that walks a Script. Conversations are held in an
// explicit map keyed by session identifier until Cleanup releases them.
type Scripted struct {
	script        Script
	conversations map[string]*conversation
	mu            sync.Mutex
}

// NewScripted creates a Scripted engine for the given script.
func NewScripted(script Script) (*Scripted, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &Scripted{
		script:        script,
		conversations: make(map[string]*conversation),
	}, nil
}

// Start opens or restarts the session's conversation.
func (e *Scripted) Start(ctx context.Context, sessionID, chiefComplaint string) (*session.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.conversations[sessionID] = &conversation{
		chiefComplaint: chiefComplaint,
		answers:        make(map[string]string),
	}
	return e.question(0), nil
}

// Answer records the answer and returns the question that follows
// questionID in the script. Re-answering a question overwrites the earlier
// answer, so repeated calls are safe.
func (e *Scripted) Answer(ctx context.Context, sessionID, questionID, answer string) (*session.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	conv, ok := e.conversations[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	idx := slices.IndexFunc(e.script.Questions, func(q session.Question) bool {
		return q.ID == questionID
	})
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if err := ValidateAnswer(e.script.Questions[idx], answer); err != nil {
		return nil, err
	}

	conv.answers[questionID] = strings.TrimSpace(answer)
	return e.question(idx + 1), nil
}

// Evaluate returns the script's differential with an audit token derived
// from the complaint and every recorded answer in question order.
func (e *Scripted) Evaluate(ctx context.Context, sessionID string) (Evaluation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	conv, ok := e.conversations[sessionID]
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", e.script.Version, conv.chiefComplaint)
	for _, q := range e.script.Questions {
		if a, ok := conv.answers[q.ID]; ok {
			fmt.Fprintf(h, "%s=%s\x00", q.ID, a)
		}
	}

	differential := make([]Condition, len(e.script.Differential))
	for i, c := range e.script.Differential {
		differential[i] = Condition{Name: c.Name, Codes: slices.Clone(c.Codes)}
	}

	return Evaluation{
		Differential: differential,
		AuditToken:   hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Cleanup releases the conversation for sessionID.
func (e *Scripted) Cleanup(ctx context.Context, sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.conversations, sessionID)
	return nil
}

// Active returns the number of conversations currently held.
func (e *Scripted) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.conversations)
}

func (e *Scripted) question(idx int) *session.Question {
	if idx >= len(e.script.Questions) {
		return nil
	}
	q := e.script.Questions[idx].Clone()
	return &q
}

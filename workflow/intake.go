package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/intake/engine"
	"github.com/tailored-agentic-units/intake/observability"
	"github.com/tailored-agentic-units/intake/session"
)

// Patient-facing messages.
const (
	MessageAnswerQuestion  = "Please answer the following question."
	MessageStartAssessment = "Please start the assessment."
	MessageAwaitingReview  = "Assessment complete. A clinician will review your responses."
	MessageThankYou        = "Thank you. Your responses will be reviewed by a licensed clinician."
	MessageReviewed        = "This session has been reviewed by a clinician."
)

// IntakeResult is the patient-facing outcome of an intake step. It never
// carries suggestion data.
type IntakeResult struct {
	SessionID    string            `json:"session_id"`
	NextQuestion *session.Question `json:"next_question"`
	Complete     bool              `json:"complete"`
	Message      string            `json:"message"`
}

// CreateSession allocates a new in-progress session for the complaint.
func (w *Workflow) CreateSession(ctx context.Context, chiefComplaint string) (view session.PatientView, err error) {
	ctx, span := w.startSpan(ctx, "CreateSession", "")
	defer w.finish(ctx, span, "workflow.CreateSession", &err)

	if strings.TrimSpace(chiefComplaint) == "" {
		return session.PatientView{}, fmt.Errorf("%w: chief complaint is required", ErrValidation)
	}

	s := session.New(w.newID(), chiefComplaint, w.now())
	if err := w.store.Create(ctx, s); err != nil {
		return session.PatientView{}, storeError(err)
	}

	w.emit(ctx, EventSessionCreate, observability.LevelInfo, "workflow.CreateSession", map[string]any{
		"session_id":       s.ID,
		"complaint_length": len(chiefComplaint),
	})

	return s.PatientView(), nil
}

// StartIntake asks the engine for the first question. When the engine has
// nothing to ask the session moves straight to pending review without a
// suggestion; EvaluatePending fills it in.
func (w *Workflow) StartIntake(ctx context.Context, id string) (res *IntakeResult, err error) {
	ctx, span := w.startSpan(ctx, "StartIntake", id)
	defer w.finish(ctx, span, "workflow.StartIntake", &err)

	unlock := w.locks.Lock(id)
	defer unlock()

	s, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != session.StatusInProgress {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}
	if strings.TrimSpace(s.ChiefComplaint) == "" {
		return nil, fmt.Errorf("%w: chief complaint not set", ErrInvalidState)
	}

	q, err := w.startEngine(ctx, s)
	if err != nil {
		return nil, err
	}

	if q == nil {
		if err := w.leaveIntake(ctx, s, "workflow.StartIntake"); err != nil {
			return nil, err
		}
		return &IntakeResult{SessionID: id, Complete: true, Message: MessageAwaitingReview}, nil
	}

	s.CurrentQuestion = q
	s.AnswerPending = false
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}

	w.emit(ctx, EventIntakeStart, observability.LevelInfo, "workflow.StartIntake", map[string]any{
		"session_id":  id,
		"question_id": q.ID,
	})

	next := q.Clone()
	return &IntakeResult{SessionID: id, NextQuestion: &next, Message: MessageAnswerQuestion}, nil
}

// SubmitAnswer records the answer against the active question and then asks
// the engine for the next one. The response is persisted before the engine
// is consulted and is kept even when the engine rejects the answer or fails.
//
// Resubmitting the identical answer while the previous one is still
// unacknowledged does not append a second record; the engine is asked again.
func (w *Workflow) SubmitAnswer(ctx context.Context, id, answer string) (res *IntakeResult, err error) {
	ctx, span := w.startSpan(ctx, "SubmitAnswer", id)
	defer w.finish(ctx, span, "workflow.SubmitAnswer", &err)

	unlock := w.locks.Lock(id)
	defer unlock()

	s, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != session.StatusInProgress {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}
	if s.CurrentQuestion == nil {
		return nil, fmt.Errorf("%w: no active question, start the intake first", ErrInvalidState)
	}

	current := *s.CurrentQuestion
	if !isRetry(s, answer) {
		s.RecordResponse(session.PatientResponse{
			QuestionID:   current.ID,
			QuestionText: current.Text,
			Answer:       answer,
			Timestamp:    w.now(),
		})
		s.AnswerPending = true
		if err := w.save(ctx, s); err != nil {
			return nil, err
		}

		w.emit(ctx, EventAnswerRecord, observability.LevelInfo, "workflow.SubmitAnswer", map[string]any{
			"session_id":      id,
			"question_id":     current.ID,
			"questions_asked": s.QuestionsAsked,
			"answer_length":   len(answer),
		})
	}

	ectx, cancel := w.engineContext(ctx)
	next, err := w.engine.Answer(ectx, id, current.ID, answer)
	cancel()
	if err != nil {
		err = engineError("answer question", err)
		w.emit(ctx, engineFailureEvent(err), observability.LevelWarning, "workflow.SubmitAnswer", map[string]any{
			"session_id":  id,
			"question_id": current.ID,
			"error":       err.Error(),
		})
		return nil, err
	}

	if next != nil {
		if err := next.Validate(); err != nil {
			return nil, fmt.Errorf("%w: engine returned malformed question: %w", ErrEngineUnavailable, err)
		}
		s.CurrentQuestion = next
		s.AnswerPending = false
		if err := w.save(ctx, s); err != nil {
			return nil, err
		}
		q := next.Clone()
		return &IntakeResult{SessionID: id, NextQuestion: &q, Message: MessageAnswerQuestion}, nil
	}

	suggestion, err := w.evaluate(ctx, s.ID, "workflow.SubmitAnswer")
	if err != nil {
		return nil, err
	}
	s.Suggestion = &suggestion

	if err := w.leaveIntake(ctx, s, "workflow.SubmitAnswer"); err != nil {
		return nil, err
	}
	return &IntakeResult{SessionID: id, Complete: true, Message: MessageThankYou}, nil
}

// CompleteManually ends intake at any point. Evaluation failures fall back
// to the sentinel suggestion so the session never awaits review empty-handed.
func (w *Workflow) CompleteManually(ctx context.Context, id string) (res *IntakeResult, err error) {
	ctx, span := w.startSpan(ctx, "CompleteManually", id)
	defer w.finish(ctx, span, "workflow.CompleteManually", &err)

	unlock := w.locks.Lock(id)
	defer unlock()

	s, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != session.StatusInProgress {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}

	suggestion := w.evaluateOrSentinel(ctx, s.ID, "workflow.CompleteManually")
	s.Suggestion = &suggestion

	if err := w.leaveIntake(ctx, s, "workflow.CompleteManually"); err != nil {
		return nil, err
	}
	return &IntakeResult{SessionID: id, Complete: true, Message: MessageThankYou}, nil
}

// EvaluatePending populates the suggestion of a session that reached
// pending review without one, which only happens when the engine had no
// first question.
func (w *Workflow) EvaluatePending(ctx context.Context, id string) (entry session.QueueEntry, err error) {
	ctx, span := w.startSpan(ctx, "EvaluatePending", id)
	defer w.finish(ctx, span, "workflow.EvaluatePending", &err)

	unlock := w.locks.Lock(id)
	defer unlock()

	s, err := w.load(ctx, id)
	if err != nil {
		return session.QueueEntry{}, err
	}
	if s.Status != session.StatusPendingReview {
		return session.QueueEntry{}, fmt.Errorf("%w: session is %s", ErrInvalidState, s.Status)
	}
	if s.Suggestion != nil {
		return session.QueueEntry{}, fmt.Errorf("%w: session already has a suggestion", ErrInvalidState)
	}

	suggestion := w.evaluateOrSentinel(ctx, s.ID, "workflow.EvaluatePending")
	s.Suggestion = &suggestion
	if err := w.save(ctx, s); err != nil {
		return session.QueueEntry{}, err
	}

	return s.QueueEntry(), nil
}

// GetCurrentQuestion returns the active question, if any, with the message
// the patient should see for the session's status.
func (w *Workflow) GetCurrentQuestion(ctx context.Context, id string) (res *IntakeResult, err error) {
	ctx, span := w.startSpan(ctx, "GetCurrentQuestion", id)
	defer w.finish(ctx, span, "workflow.GetCurrentQuestion", &err)

	s, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}

	res = &IntakeResult{SessionID: id}
	switch s.Status {
	case session.StatusPendingReview:
		res.Complete = true
		res.Message = MessageAwaitingReview
	case session.StatusReviewed:
		res.Complete = true
		res.Message = MessageReviewed
	default:
		if s.CurrentQuestion == nil {
			res.Message = MessageStartAssessment
			break
		}
		q := s.CurrentQuestion.Clone()
		res.NextQuestion = &q
		res.Message = MessageAnswerQuestion
	}
	return res, nil
}

func (w *Workflow) startEngine(ctx context.Context, s *session.Session) (*session.Question, error) {
	ectx, cancel := w.engineContext(ctx)
	defer cancel()

	q, err := w.engine.Start(ectx, s.ID, s.ChiefComplaint)
	if err != nil {
		err = engineError("start session", err)
		w.emit(ctx, EventEngineError, observability.LevelWarning, "workflow.StartIntake", map[string]any{
			"session_id": s.ID,
			"operation":  "start",
			"error":      err.Error(),
		})
		return nil, err
	}
	if q != nil {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: engine returned malformed question: %w", ErrEngineUnavailable, err)
		}
	}
	return q, nil
}

// evaluate asks the engine for its differential and keeps only the top
// candidate.
func (w *Workflow) evaluate(ctx context.Context, id, source string) (session.Suggestion, error) {
	ectx, cancel := w.engineContext(ctx)
	defer cancel()

	ev, err := w.engine.Evaluate(ectx, id)
	if err != nil {
		err = engineError("evaluate", err)
		w.emit(ctx, EventEngineError, observability.LevelWarning, source, map[string]any{
			"session_id": id,
			"operation":  "evaluate",
			"error":      err.Error(),
		})
		return session.Suggestion{}, err
	}

	suggestion, fallback := topSuggestion(ev)
	if fallback {
		w.emit(ctx, EventEvaluateFallback, observability.LevelWarning, source, map[string]any{
			"session_id": id,
			"candidates": len(ev.Differential),
		})
	}
	w.emit(ctx, EventEvaluate, observability.LevelVerbose, source, map[string]any{
		"session_id":                   id,
		observability.KeySuggestedCode: suggestion.Code,
	})
	return suggestion, nil
}

func (w *Workflow) evaluateOrSentinel(ctx context.Context, id, source string) session.Suggestion {
	suggestion, err := w.evaluate(ctx, id, source)
	if err != nil {
		w.emit(ctx, EventEvaluateFallback, observability.LevelWarning, source, map[string]any{
			"session_id": id,
			"reason":     err.Error(),
		})
		return session.Suggestion{Code: SentinelCode, ConditionName: SentinelCondition}
	}
	return suggestion
}

// topSuggestion takes the first candidate as final. It reports whether the
// sentinel code had to be used.
func topSuggestion(ev engine.Evaluation) (session.Suggestion, bool) {
	if len(ev.Differential) == 0 {
		return session.Suggestion{
			Code:          SentinelCode,
			ConditionName: SentinelCondition,
			AuditToken:    ev.AuditToken,
		}, true
	}

	top := ev.Differential[0]
	name := strings.TrimSpace(top.Name)
	if name == "" {
		name = SentinelCondition
	}
	if len(top.Codes) == 0 || strings.TrimSpace(top.Codes[0]) == "" {
		return session.Suggestion{Code: SentinelCode, ConditionName: name, AuditToken: ev.AuditToken}, true
	}
	return session.Suggestion{
		Code:          strings.TrimSpace(top.Codes[0]),
		ConditionName: name,
		AuditToken:    ev.AuditToken,
	}, false
}

// isRetry reports whether answer repeats the unacknowledged response to the
// active question.
func isRetry(s *session.Session, answer string) bool {
	if !s.AnswerPending {
		return false
	}
	last, ok := s.LastResponse()
	return ok && last.QuestionID == s.CurrentQuestionID() && last.Answer == answer
}

func engineFailureEvent(err error) observability.EventType {
	if clientError(err) {
		return EventAnswerInvalid
	}
	return EventEngineError
}

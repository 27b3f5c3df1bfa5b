// Package workflow implements the assessment session state machine and the
// clinician review workflow.
//
// A session moves strictly forward through three states:
//
//	in_progress -> pending_review -> reviewed
//
// The Workflow owns every mutation. Mutating operations on the same session
// are serialized; reads run against store snapshots without locking.
//
//	w := workflow.New(store, engine, &cfg)
//	view, err := w.CreateSession(ctx, "knee pain")
//	res, err := w.StartIntake(ctx, view.ID)
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/intake/audit"
	"github.com/tailored-agentic-units/intake/engine"
	"github.com/tailored-agentic-units/intake/observability"
	"github.com/tailored-agentic-units/intake/session"
	"github.com/tailored-agentic-units/intake/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tailored-agentic-units/intake/workflow"

// Sentinel suggestion used whenever evaluation produces no usable code.
const (
	SentinelCode      = "Z03.89"
	SentinelCondition = "Observation for suspected condition"
)

// Option configures a Workflow after config-driven initialization.
type Option func(*Workflow)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(w *Workflow) { w.observer = o }
}

// WithAuditSink overrides the default no-op audit sink.
func WithAuditSink(s audit.Sink) Option {
	return func(w *Workflow) { w.audit = s }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(w *Workflow) { w.tracer = t }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithIDGenerator overrides UUIDv7 session identifiers.
func WithIDGenerator(newID func() string) Option {
	return func(w *Workflow) { w.newID = newID }
}

// Workflow coordinates the session store and the assessment engine.
type Workflow struct {
	store         store.Store
	engine        engine.Engine
	audit         audit.Sink
	observer      observability.Observer
	tracer        trace.Tracer
	locks         *keyedMutex
	engineTimeout time.Duration
	now           func() time.Time
	newID         func() string
}

// New creates a Workflow over the given collaborators.
func New(st store.Store, eng engine.Engine, cfg *Config, opts ...Option) *Workflow {
	timeout := cfg.EngineTimeout.Std()
	if timeout <= 0 {
		timeout = defaultEngineTimeout
	}

	w := &Workflow{
		store:         st,
		engine:        eng,
		audit:         audit.NoOp{},
		observer:      observability.NewSlogObserver(slog.Default()),
		tracer:        otel.Tracer(tracerName),
		locks:         newKeyedMutex(),
		engineTimeout: timeout,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         func() string { return uuid.Must(uuid.NewV7()).String() },
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// load returns a private copy of the session or ErrNotFound.
func (w *Workflow) load(ctx context.Context, id string) (*session.Session, error) {
	s, ok, err := w.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// save checks structural invariants and writes the session back.
func (w *Workflow) save(ctx context.Context, s *session.Session) error {
	if err := s.CheckInvariants(); err != nil {
		return fmt.Errorf("refusing to persist session %s: %w", s.ID, err)
	}
	if err := w.store.Update(ctx, s); err != nil {
		return storeError(err)
	}
	return nil
}

func storeError(err error) error {
	if errors.Is(err, store.ErrAlreadyExists) || errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrStoreConflict, err)
	}
	return fmt.Errorf("session store: %w", err)
}

// engineError maps an engine failure onto the workflow taxonomy.
func engineError(op string, err error) error {
	if errors.Is(err, engine.ErrInvalidAnswer) {
		return fmt.Errorf("%w: %w", ErrInvalidAnswer, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, op, err)
}

// engineContext bounds a single engine call.
func (w *Workflow) engineContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, w.engineTimeout)
}

// leaveIntake moves an in-progress session to pending review, persists it,
// and releases the engine conversation. Cleanup happens only after the
// transition is durable, so it runs exactly once per session.
func (w *Workflow) leaveIntake(ctx context.Context, s *session.Session, source string) error {
	if !session.CanTransition(s.Status, session.StatusPendingReview) {
		return fmt.Errorf("%w: cannot complete intake from %s", ErrInvalidState, s.Status)
	}

	from := s.Status
	s.Status = session.StatusPendingReview
	s.CurrentQuestion = nil
	s.AnswerPending = false

	if err := w.save(ctx, s); err != nil {
		return err
	}

	w.emit(ctx, EventTransition, observability.LevelInfo, source, map[string]any{
		"session_id":     s.ID,
		"from":           string(from),
		"to":             string(s.Status),
		"has_suggestion": s.Suggestion != nil,
	})

	w.cleanup(ctx, s.ID, source)
	return nil
}

func (w *Workflow) cleanup(ctx context.Context, id, source string) {
	cctx, cancel := w.engineContext(context.WithoutCancel(ctx))
	defer cancel()

	if err := w.engine.Cleanup(cctx, id); err != nil {
		w.emit(ctx, EventEngineError, observability.LevelWarning, source, map[string]any{
			"session_id": id,
			"operation":  "cleanup",
			"error":      err.Error(),
		})
		return
	}

	w.emit(ctx, EventEngineCleanup, observability.LevelVerbose, source, map[string]any{
		"session_id": id,
	})
}

func (w *Workflow) emit(ctx context.Context, t observability.EventType, level observability.Level, source string, data map[string]any) {
	w.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: w.now(),
		Source:    source,
		Data:      data,
	})
}

// startSpan opens the span for a workflow operation.
func (w *Workflow) startSpan(ctx context.Context, op, sessionID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("workflow.operation", op)}
	if sessionID != "" {
		attrs = append(attrs, attribute.String("session.id", sessionID))
	}
	return w.tracer.Start(ctx, "workflow."+op, trace.WithAttributes(attrs...))
}

// finish ends span, recording *err and emitting an error event for faults
// that are not the caller's doing.
func (w *Workflow) finish(ctx context.Context, span trace.Span, source string, err *error) {
	defer span.End()

	if *err == nil {
		return
	}

	span.RecordError(*err)
	span.SetStatus(codes.Error, (*err).Error())

	if clientError(*err) {
		return
	}
	w.emit(ctx, EventError, observability.LevelError, source, map[string]any{
		"error": (*err).Error(),
	})
}

func clientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidAnswer)
}

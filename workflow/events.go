package workflow

import "github.com/tailored-agentic-units/intake/observability"

// Workflow event types.
const (
	EventSessionCreate    observability.EventType = "workflow.session.create"
	EventIntakeStart      observability.EventType = "workflow.intake.start"
	EventAnswerRecord     observability.EventType = "workflow.answer.record"
	EventAnswerInvalid    observability.EventType = "workflow.answer.invalid"
	EventEvaluate         observability.EventType = "workflow.evaluate"
	EventEvaluateFallback observability.EventType = "workflow.evaluate.fallback"
	EventTransition       observability.EventType = "workflow.transition"
	EventReviewAccept     observability.EventType = "workflow.review.accept"
	EventReviewReject     observability.EventType = "workflow.review.reject"
	EventEngineCleanup    observability.EventType = "workflow.engine.cleanup"
	EventEngineError      observability.EventType = "workflow.engine.error"
	EventAuditError       observability.EventType = "workflow.audit.error"
	EventError            observability.EventType = "workflow.error"
)

package workflow

import (
	"context"

	"github.com/samber/lo"
	"github.com/tailored-agentic-units/intake/session"
)

// PatientView returns the patient-safe projection of a session.
func (w *Workflow) PatientView(ctx context.Context, id string) (view session.PatientView, err error) {
	ctx, span := w.startSpan(ctx, "PatientView", id)
	defer w.finish(ctx, span, "workflow.PatientView", &err)

	s, err := w.load(ctx, id)
	if err != nil {
		return session.PatientView{}, err
	}
	return s.PatientView(), nil
}

// PendingQueue returns the sessions awaiting review, oldest first.
func (w *Workflow) PendingQueue(ctx context.Context) (entries []session.QueueEntry, err error) {
	ctx, span := w.startSpan(ctx, "PendingQueue", "")
	defer w.finish(ctx, span, "workflow.PendingQueue", &err)

	sessions, err := w.store.ListByStatus(ctx, session.StatusPendingReview)
	if err != nil {
		return nil, storeError(err)
	}
	return queueEntries(sessions), nil
}

// ListSessions returns every session as a clinician queue entry, oldest
// first.
func (w *Workflow) ListSessions(ctx context.Context) (entries []session.QueueEntry, err error) {
	ctx, span := w.startSpan(ctx, "ListSessions", "")
	defer w.finish(ctx, span, "workflow.ListSessions", &err)

	sessions, err := w.store.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return queueEntries(sessions), nil
}

// ReviewDetail returns the full clinician projection of a session.
func (w *Workflow) ReviewDetail(ctx context.Context, id string) (detail session.Detail, err error) {
	ctx, span := w.startSpan(ctx, "ReviewDetail", id)
	defer w.finish(ctx, span, "workflow.ReviewDetail", &err)

	s, err := w.load(ctx, id)
	if err != nil {
		return session.Detail{}, err
	}
	return s.Detail(), nil
}

// Counts returns the number of sessions in every status, zeros included.
func (w *Workflow) Counts(ctx context.Context) (counts map[session.Status]int, err error) {
	ctx, span := w.startSpan(ctx, "Counts", "")
	defer w.finish(ctx, span, "workflow.Counts", &err)

	counts, err = w.store.CountByStatus(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	for _, st := range session.Statuses() {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

func queueEntries(sessions []*session.Session) []session.QueueEntry {
	return lo.Map(sessions, func(s *session.Session, _ int) session.QueueEntry {
		return s.QueueEntry()
	})
}

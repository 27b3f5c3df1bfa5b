package intake

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/intake/session"
	"github.com/tailored-agentic-units/intake/workflow"
)

// DemoResult is the outcome of a scripted demo run.
type DemoResult struct {
	SessionID string
	Detail    session.Detail
	Review    *workflow.ReviewResult
}

// RunDemo walks one session through intake, answering each question with
// its first option, and accepts the suggestion as the configured demo
// clinician.
func (r *Runtime) RunDemo(ctx context.Context, chiefComplaint string) (*DemoResult, error) {
	wf := r.workflow

	view, err := wf.CreateSession(ctx, chiefComplaint)
	if err != nil {
		return nil, err
	}

	res, err := wf.StartIntake(ctx, view.ID)
	if err != nil {
		return nil, err
	}
	for !res.Complete && res.NextQuestion != nil {
		res, err = wf.SubmitAnswer(ctx, view.ID, demoAnswer(*res.NextQuestion))
		if err != nil {
			return nil, err
		}
	}

	detail, err := wf.ReviewDetail(ctx, view.ID)
	if err != nil {
		return nil, err
	}
	if detail.SuggestedCode == nil {
		if _, err := wf.EvaluatePending(ctx, view.ID); err != nil {
			return nil, err
		}
	}

	review, err := wf.Accept(ctx, view.ID, r.cfg.DemoClinicianID,
		fmt.Sprintf("Demo review of %q.", chiefComplaint))
	if err != nil {
		return nil, err
	}

	detail, err = wf.ReviewDetail(ctx, view.ID)
	if err != nil {
		return nil, err
	}

	return &DemoResult{
		SessionID: view.ID,
		Detail:    detail,
		Review:    review,
	}, nil
}

func demoAnswer(q session.Question) string {
	if len(q.Options) > 0 {
		return q.Options[0]
	}
	switch q.Type {
	case session.QuestionBoolean:
		return "Yes"
	case session.QuestionNumeric:
		return "5"
	default:
		return "2 weeks"
	}
}

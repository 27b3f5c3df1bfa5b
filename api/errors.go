package api

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/tailored-agentic-units/intake/workflow"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
)

// ErrorDomain identifies errors raised by this service in ErrorInfo details.
const ErrorDomain = "intake.tailored-agentic-units"

// Machine-readable reasons carried in ErrorInfo details.
const (
	ReasonNotFound          = "SESSION_NOT_FOUND"
	ReasonInvalidState      = "INVALID_STATE"
	ReasonValidation        = "VALIDATION_FAILED"
	ReasonInvalidAnswer     = "INVALID_ANSWER"
	ReasonEngineUnavailable = "ENGINE_UNAVAILABLE"
	ReasonInternal          = "INTERNAL"
)

var reasons = []struct {
	reason string
	err    error
	code   connect.Code
}{
	{ReasonNotFound, workflow.ErrNotFound, connect.CodeNotFound},
	{ReasonInvalidState, workflow.ErrInvalidState, connect.CodeFailedPrecondition},
	{ReasonInvalidAnswer, workflow.ErrInvalidAnswer, connect.CodeInvalidArgument},
	{ReasonValidation, workflow.ErrValidation, connect.CodeInvalidArgument},
	{ReasonEngineUnavailable, workflow.ErrEngineUnavailable, connect.CodeUnavailable},
}

// toConnectError maps the workflow taxonomy onto Connect codes and attaches
// an ErrorInfo detail naming the reason. Client errors keep their message;
// engine and internal failures are reported without detail.
func toConnectError(err error) *connect.Error {
	reason, code, msg := ReasonInternal, connect.CodeInternal, errors.New("internal error")
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			reason, code, msg = r.reason, r.code, err
			if r.err == workflow.ErrEngineUnavailable {
				msg = workflow.ErrEngineUnavailable
			}
			break
		}
	}

	cerr := connect.NewError(code, msg)
	if detail, derr := connect.NewErrorDetail(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: ErrorDomain,
	}); derr == nil {
		cerr.AddDetail(detail)
	}
	return cerr
}

// fromConnectError restores the workflow sentinel named by the ErrorInfo
// reason so clients can match the workflow taxonomy with errors.Is.
func fromConnectError(err error) error {
	var ce *connect.Error
	if !errors.As(err, &ce) {
		return err
	}
	for _, d := range ce.Details() {
		v, derr := d.Value()
		if derr != nil {
			continue
		}
		info, ok := v.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		for _, r := range reasons {
			if r.reason == info.GetReason() {
				return errors.Join(r.err, err)
			}
		}
	}
	return err
}

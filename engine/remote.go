package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/tailored-agentic-units/intake/rpc"
	"github.com/tailored-agentic-units/intake/session"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Connect procedures exposed by an assessment engine service.
const (
	ServiceName       = "assessment.v1.AssessmentEngine"
	StartProcedure    = "/" + ServiceName + "/StartSession"
	AnswerProcedure   = "/" + ServiceName + "/AnswerQuestion"
	EvaluateProcedure = "/" + ServiceName + "/Evaluate"
	CleanupProcedure  = "/" + ServiceName + "/CleanupSession"
)

type StartRequest struct {
	SessionID      string `json:"session_id"`
	ChiefComplaint string `json:"chief_complaint"`
	EngineVersion  string `json:"engine_version,omitempty"`
}

type AnswerRequest struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// QuestionReply carries the next question; a nil Question ends the flow.
type QuestionReply struct {
	Question *session.Question `json:"question"`
}

// Remote is an Engine that calls an assessment engine service over Connect.
type Remote struct {
	start    *connect.Client[StartRequest, QuestionReply]
	answer   *connect.Client[AnswerRequest, QuestionReply]
	evaluate *connect.Client[SessionRequest, Evaluation]
	cleanup  *connect.Client[SessionRequest, emptypb.Empty]
	version  string
}

// NewRemote creates a Remote engine client for the service at baseURL.
// version is forwarded on StartSession so the service can refuse a
// mismatched deployment.
func NewRemote(httpClient connect.HTTPClient, baseURL, version string) *Remote {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := strings.TrimRight(baseURL, "/")
	opts := rpc.ClientOptions()

	return &Remote{
		start:    connect.NewClient[StartRequest, QuestionReply](httpClient, base+StartProcedure, opts...),
		answer:   connect.NewClient[AnswerRequest, QuestionReply](httpClient, base+AnswerProcedure, opts...),
		evaluate: connect.NewClient[SessionRequest, Evaluation](httpClient, base+EvaluateProcedure, opts...),
		cleanup:  connect.NewClient[SessionRequest, emptypb.Empty](httpClient, base+CleanupProcedure, opts...),
		version:  version,
	}
}

func (r *Remote) Start(ctx context.Context, sessionID, chiefComplaint string) (*session.Question, error) {
	res, err := r.start.CallUnary(ctx, connect.NewRequest(&StartRequest{
		SessionID:      sessionID,
		ChiefComplaint: chiefComplaint,
		EngineVersion:  r.version,
	}))
	if err != nil {
		return nil, fromConnectError("start session", err)
	}
	return res.Msg.Question, nil
}

func (r *Remote) Answer(ctx context.Context, sessionID, questionID, answer string) (*session.Question, error) {
	res, err := r.answer.CallUnary(ctx, connect.NewRequest(&AnswerRequest{
		SessionID:  sessionID,
		QuestionID: questionID,
		Answer:     answer,
	}))
	if err != nil {
		return nil, fromConnectError("answer question", err)
	}
	return res.Msg.Question, nil
}

func (r *Remote) Evaluate(ctx context.Context, sessionID string) (Evaluation, error) {
	res, err := r.evaluate.CallUnary(ctx, connect.NewRequest(&SessionRequest{SessionID: sessionID}))
	if err != nil {
		return Evaluation{}, fromConnectError("evaluate", err)
	}
	return *res.Msg, nil
}

func (r *Remote) Cleanup(ctx context.Context, sessionID string) error {
	_, err := r.cleanup.CallUnary(ctx, connect.NewRequest(&SessionRequest{SessionID: sessionID}))
	if err != nil {
		return fromConnectError("cleanup session", err)
	}
	return nil
}

func fromConnectError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
	switch connect.CodeOf(err) {
	case connect.CodeInvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidAnswer, connectMessage(err))
	case connect.CodeNotFound:
		return fmt.Errorf("%w: %s", ErrUnknownSession, connectMessage(err))
	case connect.CodeFailedPrecondition:
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, connectMessage(err))
	default:
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
}

func connectMessage(err error) string {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce.Message()
	}
	return err.Error()
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAnswer):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrUnknownSession):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrUnknownQuestion):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeUnavailable, err)
	}
}

// NewHandler serves e as an assessment engine service. It returns the path
// to mount the handler on.
func NewHandler(e Engine, opts ...connect.HandlerOption) (string, http.Handler) {
	hopts := rpc.HandlerOptions(opts...)
	mux := http.NewServeMux()

	mux.Handle(StartProcedure, connect.NewUnaryHandler(StartProcedure,
		func(ctx context.Context, req *connect.Request[StartRequest]) (*connect.Response[QuestionReply], error) {
			q, err := e.Start(ctx, req.Msg.SessionID, req.Msg.ChiefComplaint)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(&QuestionReply{Question: q}), nil
		}, hopts...))

	mux.Handle(AnswerProcedure, connect.NewUnaryHandler(AnswerProcedure,
		func(ctx context.Context, req *connect.Request[AnswerRequest]) (*connect.Response[QuestionReply], error) {
			q, err := e.Answer(ctx, req.Msg.SessionID, req.Msg.QuestionID, req.Msg.Answer)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(&QuestionReply{Question: q}), nil
		}, hopts...))

	mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(EvaluateProcedure,
		func(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[Evaluation], error) {
			ev, err := e.Evaluate(ctx, req.Msg.SessionID)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(&ev), nil
		}, hopts...))

	mux.Handle(CleanupProcedure, connect.NewUnaryHandler(CleanupProcedure,
		func(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[emptypb.Empty], error) {
			if err := e.Cleanup(ctx, req.Msg.SessionID); err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(&emptypb.Empty{}), nil
		}, hopts...))

	return "/" + ServiceName + "/", mux
}

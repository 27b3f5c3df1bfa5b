package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tailored-agentic-units/intake/observability"
	"github.com/tailored-agentic-units/intake/rpc"
	"github.com/tailored-agentic-units/intake/session"
	"google.golang.org/protobuf/types/known/emptypb"
)

// EventRequest is emitted once per handled procedure.
const EventRequest observability.EventType = "api.request"

// Option configures the handler returned by NewHandler.
type Option func(*server)

// WithObserver sets the observer that receives one event per request.
func WithObserver(o observability.Observer) Option {
	return func(s *server) { s.observer = o }
}

// WithHandlerOptions appends Connect handler options to every procedure.
func WithHandlerOptions(opts ...connect.HandlerOption) Option {
	return func(s *server) { s.extra = append(s.extra, opts...) }
}

type server struct {
	wf       Workflow
	info     Info
	observer observability.Observer
	extra    []connect.HandlerOption
}

// NewHandler serves every patient, clinician, and info procedure plus the
// health endpoint on a single mux.
func NewHandler(wf Workflow, info Info, opts ...Option) http.Handler {
	s := &server{
		wf:       wf,
		info:     info,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}

	hopts := rpc.HandlerOptions(append([]connect.HandlerOption{
		connect.WithInterceptors(s.observe()),
	}, s.extra...)...)

	mux := http.NewServeMux()

	unary(mux, CreateSessionProcedure, s.createSession, hopts)
	unary(mux, GetSessionProcedure, s.getSession, hopts)
	unary(mux, StartIntakeProcedure, s.startIntake, hopts)
	unary(mux, GetCurrentQuestionProcedure, s.getCurrentQuestion, hopts)
	unary(mux, SubmitAnswerProcedure, s.submitAnswer, hopts)
	unary(mux, CompleteProcedure, s.complete, hopts)

	unary(mux, PendingQueueProcedure, s.pendingQueue, hopts)
	unary(mux, ListSessionsProcedure, s.listSessions, hopts)
	unary(mux, ReviewDetailProcedure, s.reviewDetail, hopts)
	unary(mux, EvaluatePendingProcedure, s.evaluatePending, hopts)
	unary(mux, AcceptProcedure, s.accept, hopts)
	unary(mux, RejectProcedure, s.reject, hopts)
	unary(mux, CountsProcedure, s.counts, hopts)

	unary(mux, GetInfoProcedure, s.getInfo, hopts)

	mux.HandleFunc("GET "+HealthPath, s.health)

	return mux
}

func unary[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *Req) (*Res, error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		}, opts...))
}

func (s *server) observe() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			level := observability.LevelVerbose
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
				level = observability.LevelInfo
				if connect.CodeOf(err) == connect.CodeInternal || connect.CodeOf(err) == connect.CodeUnavailable {
					level = observability.LevelWarning
				}
			}

			s.observer.OnEvent(ctx, observability.Event{
				Type:      EventRequest,
				Level:     level,
				Timestamp: time.Now(),
				Source:    "api",
				Data: map[string]any{
					"procedure":   req.Spec().Procedure,
					"code":        code,
					"duration_ms": time.Since(start).Milliseconds(),
				},
			})
			return res, err
		}
	}
}

// --- patient ---

func (s *server) createSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	view, err := s.wf.CreateSession(ctx, req.ChiefComplaint)
	if err != nil {
		return nil, err
	}
	return &CreateSessionResponse{SessionID: view.ID, Status: view.Status, CreatedAt: view.CreatedAt}, nil
}

func (s *server) getSession(ctx context.Context, req *SessionRequest) (*session.PatientView, error) {
	view, err := s.wf.PatientView(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *server) startIntake(ctx context.Context, req *SessionRequest) (*IntakeResponse, error) {
	return s.wf.StartIntake(ctx, req.SessionID)
}

func (s *server) getCurrentQuestion(ctx context.Context, req *SessionRequest) (*IntakeResponse, error) {
	return s.wf.GetCurrentQuestion(ctx, req.SessionID)
}

func (s *server) submitAnswer(ctx context.Context, req *AnswerRequest) (*IntakeResponse, error) {
	return s.wf.SubmitAnswer(ctx, req.SessionID, req.Answer)
}

func (s *server) complete(ctx context.Context, req *SessionRequest) (*IntakeResponse, error) {
	return s.wf.CompleteManually(ctx, req.SessionID)
}

// --- clinician ---

func (s *server) pendingQueue(ctx context.Context, _ *emptypb.Empty) (*QueueResponse, error) {
	return queueResponse(s.wf.PendingQueue(ctx))
}

func (s *server) listSessions(ctx context.Context, _ *emptypb.Empty) (*QueueResponse, error) {
	return queueResponse(s.wf.ListSessions(ctx))
}

func (s *server) reviewDetail(ctx context.Context, req *SessionRequest) (*session.Detail, error) {
	detail, err := s.wf.ReviewDetail(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *server) evaluatePending(ctx context.Context, req *SessionRequest) (*session.QueueEntry, error) {
	entry, err := s.wf.EvaluatePending(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *server) accept(ctx context.Context, req *AcceptRequest) (*ReviewResponse, error) {
	return s.wf.Accept(ctx, req.SessionID, req.ClinicianID, req.Notes)
}

func (s *server) reject(ctx context.Context, req *RejectRequest) (*ReviewResponse, error) {
	return s.wf.RejectAndReplace(ctx, req.SessionID, req.ClinicianID, req.ReplacementCode, req.Reason)
}

func (s *server) counts(ctx context.Context, _ *emptypb.Empty) (*CountsResponse, error) {
	counts, err := s.wf.Counts(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &CountsResponse{Counts: counts, Total: total}, nil
}

// --- info ---

func (s *server) getInfo(ctx context.Context, _ *emptypb.Empty) (*Info, error) {
	info := s.info
	return &info, nil
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Health{Status: "healthy", Service: s.info.Service})
}

func queueResponse(entries []session.QueueEntry, err error) (*QueueResponse, error) {
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []session.QueueEntry{}
	}
	return &QueueResponse{Sessions: entries, Total: len(entries)}, nil
}

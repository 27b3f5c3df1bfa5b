package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/tailored-agentic-units/intake/rpc"
	"github.com/tailored-agentic-units/intake/session"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Client calls the patient, clinician, and info services. Errors carrying a
// workflow reason match the workflow sentinels with errors.Is.
type Client struct {
	http connect.HTTPClient
	base string
	opts []connect.ClientOption
}

// NewClient creates a Client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http: httpClient,
		base: strings.TrimRight(baseURL, "/"),
		opts: append(rpc.ClientOptions(), opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *Client, procedure string, req *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](c.http, c.base+procedure, c.opts...)
	res, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return res.Msg, nil
}

func (c *Client) CreateSession(ctx context.Context, chiefComplaint string) (*CreateSessionResponse, error) {
	return call[CreateSessionRequest, CreateSessionResponse](ctx, c, CreateSessionProcedure,
		&CreateSessionRequest{ChiefComplaint: chiefComplaint})
}

func (c *Client) GetSession(ctx context.Context, id string) (*session.PatientView, error) {
	return call[SessionRequest, session.PatientView](ctx, c, GetSessionProcedure, &SessionRequest{SessionID: id})
}

func (c *Client) StartIntake(ctx context.Context, id string) (*IntakeResponse, error) {
	return call[SessionRequest, IntakeResponse](ctx, c, StartIntakeProcedure, &SessionRequest{SessionID: id})
}

func (c *Client) GetCurrentQuestion(ctx context.Context, id string) (*IntakeResponse, error) {
	return call[SessionRequest, IntakeResponse](ctx, c, GetCurrentQuestionProcedure, &SessionRequest{SessionID: id})
}

func (c *Client) SubmitAnswer(ctx context.Context, id, answer string) (*IntakeResponse, error) {
	return call[AnswerRequest, IntakeResponse](ctx, c, SubmitAnswerProcedure,
		&AnswerRequest{SessionID: id, Answer: answer})
}

func (c *Client) Complete(ctx context.Context, id string) (*IntakeResponse, error) {
	return call[SessionRequest, IntakeResponse](ctx, c, CompleteProcedure, &SessionRequest{SessionID: id})
}

func (c *Client) PendingQueue(ctx context.Context) (*QueueResponse, error) {
	return call[emptypb.Empty, QueueResponse](ctx, c, PendingQueueProcedure, &emptypb.Empty{})
}

func (c *Client) ListSessions(ctx context.Context) (*QueueResponse, error) {
	return call[emptypb.Empty, QueueResponse](ctx, c, ListSessionsProcedure, &emptypb.Empty{})
}

func (c *Client) ReviewDetail(ctx context.Context, id string) (*session.Detail, error) {
	return call[SessionRequest, session.Detail](ctx, c, ReviewDetailProcedure, &SessionRequest{SessionID: id})
}

func (c *Client) EvaluatePending(ctx context.Context, id string) (*session.QueueEntry, error) {
	return call[SessionRequest, session.QueueEntry](ctx, c, EvaluatePendingProcedure, &SessionRequest{SessionID: id})
}

func (c *Client) Accept(ctx context.Context, req AcceptRequest) (*ReviewResponse, error) {
	return call[AcceptRequest, ReviewResponse](ctx, c, AcceptProcedure, &req)
}

func (c *Client) Reject(ctx context.Context, req RejectRequest) (*ReviewResponse, error) {
	return call[RejectRequest, ReviewResponse](ctx, c, RejectProcedure, &req)
}

func (c *Client) Counts(ctx context.Context) (*CountsResponse, error) {
	return call[emptypb.Empty, CountsResponse](ctx, c, CountsProcedure, &emptypb.Empty{})
}

func (c *Client) GetInfo(ctx context.Context) (*Info, error) {
	return call[emptypb.Empty, Info](ctx, c, GetInfoProcedure, &emptypb.Empty{})
}

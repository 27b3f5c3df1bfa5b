// Package api exposes the session workflow over Connect RPC.
//
// Patient and clinician procedures live on separate services. Nothing on the
// patient service ever returns a suggested code, condition name, or review
// outcome; the clinician service always returns them once available.
package api

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/intake/session"
	"github.com/tailored-agentic-units/intake/workflow"
)

// Service names.
const (
	PatientService   = "intake.v1.PatientService"
	ClinicianService = "intake.v1.ClinicianService"
	InfoService      = "intake.v1.InfoService"
)

// Patient procedures.
const (
	CreateSessionProcedure      = "/" + PatientService + "/CreateSession"
	GetSessionProcedure         = "/" + PatientService + "/GetSession"
	StartIntakeProcedure        = "/" + PatientService + "/StartIntake"
	GetCurrentQuestionProcedure = "/" + PatientService + "/GetCurrentQuestion"
	SubmitAnswerProcedure       = "/" + PatientService + "/SubmitAnswer"
	CompleteProcedure           = "/" + PatientService + "/Complete"
)

// Clinician procedures.
const (
	PendingQueueProcedure    = "/" + ClinicianService + "/PendingQueue"
	ListSessionsProcedure    = "/" + ClinicianService + "/ListSessions"
	ReviewDetailProcedure    = "/" + ClinicianService + "/ReviewDetail"
	EvaluatePendingProcedure = "/" + ClinicianService + "/EvaluatePending"
	AcceptProcedure          = "/" + ClinicianService + "/Accept"
	RejectProcedure          = "/" + ClinicianService + "/Reject"
	CountsProcedure          = "/" + ClinicianService + "/Counts"
)

// GetInfoProcedure describes the running service.
const GetInfoProcedure = "/" + InfoService + "/GetInfo"

// HealthPath answers plain HTTP health probes.
const HealthPath = "/health"

// Workflow is the set of workflow operations served by the API.
type Workflow interface {
	CreateSession(ctx context.Context, chiefComplaint string) (session.PatientView, error)
	PatientView(ctx context.Context, id string) (session.PatientView, error)
	StartIntake(ctx context.Context, id string) (*workflow.IntakeResult, error)
	GetCurrentQuestion(ctx context.Context, id string) (*workflow.IntakeResult, error)
	SubmitAnswer(ctx context.Context, id, answer string) (*workflow.IntakeResult, error)
	CompleteManually(ctx context.Context, id string) (*workflow.IntakeResult, error)

	PendingQueue(ctx context.Context) ([]session.QueueEntry, error)
	ListSessions(ctx context.Context) ([]session.QueueEntry, error)
	ReviewDetail(ctx context.Context, id string) (session.Detail, error)
	EvaluatePending(ctx context.Context, id string) (session.QueueEntry, error)
	Accept(ctx context.Context, id, clinicianID, notes string) (*workflow.ReviewResult, error)
	RejectAndReplace(ctx context.Context, id, clinicianID, replacementCode, reason string) (*workflow.ReviewResult, error)
	Counts(ctx context.Context) (map[session.Status]int, error)
}

var _ Workflow = (*workflow.Workflow)(nil)

// IntakeResponse is returned by every patient intake procedure.
type IntakeResponse = workflow.IntakeResult

// ReviewResponse is returned by Accept and Reject.
type ReviewResponse = workflow.ReviewResult

type CreateSessionRequest struct {
	ChiefComplaint string `json:"chief_complaint"`
}

// CreateSessionResponse omits questions_asked; a new session has none.
type CreateSessionResponse struct {
	SessionID string         `json:"session_id"`
	Status    session.Status `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type AnswerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type AcceptRequest struct {
	SessionID   string `json:"session_id"`
	ClinicianID string `json:"clinician_id"`
	Notes       string `json:"notes"`
}

type RejectRequest struct {
	SessionID       string `json:"session_id"`
	ClinicianID     string `json:"clinician_id"`
	ReplacementCode string `json:"replacement_icd10"`
	Reason          string `json:"reason"`
}

type QueueResponse struct {
	Sessions []session.QueueEntry `json:"sessions"`
	Total    int                  `json:"total"`
}

type CountsResponse struct {
	Counts map[session.Status]int `json:"counts"`
	Total  int                    `json:"total"`
}

// Info describes the running service.
type Info struct {
	Service       string `json:"service"`
	Version       string `json:"version"`
	EngineVersion string `json:"engine_version,omitempty"`
	StoreBackend  string `json:"store_backend,omitempty"`
}

// Health is the body served at HealthPath.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

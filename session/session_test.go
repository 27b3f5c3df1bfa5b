package session_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/intake/session"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from session.Status
		to   session.Status
		want bool
	}{
		{"in progress to pending", session.StatusInProgress, session.StatusPendingReview, true},
		{"pending to reviewed", session.StatusPendingReview, session.StatusReviewed, true},
		{"in progress to reviewed skips review", session.StatusInProgress, session.StatusReviewed, false},
		{"pending back to in progress", session.StatusPendingReview, session.StatusInProgress, false},
		{"reviewed back to pending", session.StatusReviewed, session.StatusPendingReview, false},
		{"reviewed to reviewed", session.StatusReviewed, session.StatusReviewed, false},
		{"same status", session.StatusInProgress, session.StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := session.CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range session.Statuses() {
		if !s.Valid() {
			t.Errorf("Status(%q).Valid() = false, want true", s)
		}
	}
	if session.Status("skipped").Valid() {
		t.Error(`Status("skipped").Valid() = true, want false`)
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := session.New("s1", "knee pain", now)

	if s.Status != session.StatusInProgress {
		t.Errorf("Status = %q, want %q", s.Status, session.StatusInProgress)
	}
	if s.QuestionsAsked != 0 || len(s.Responses) != 0 {
		t.Errorf("new session has %d responses, %d asked; want 0, 0", len(s.Responses), s.QuestionsAsked)
	}
	if s.CurrentQuestionID() != "" {
		t.Errorf("CurrentQuestionID() = %q, want empty", s.CurrentQuestionID())
	}
	if err := s.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants() error = %v", err)
	}
}

func TestSession_RecordResponse(t *testing.T) {
	s := session.New("s1", "knee pain", time.Now())
	s.RecordResponse(session.PatientResponse{QuestionID: "q1", Answer: "Knee"})
	s.RecordResponse(session.PatientResponse{QuestionID: "q2", Answer: "1-4 weeks"})

	if s.QuestionsAsked != 2 {
		t.Errorf("QuestionsAsked = %d, want 2", s.QuestionsAsked)
	}
	last, ok := s.LastResponse()
	if !ok || last.QuestionID != "q2" {
		t.Errorf("LastResponse() = %+v, %v; want q2", last, ok)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants() error = %v", err)
	}
}

func TestSession_Clone_DefensiveCopy(t *testing.T) {
	s := session.New("s1", "knee pain", time.Now())
	s.CurrentQuestion = &session.Question{ID: "q1", Text: "Where?", Type: session.QuestionCategorical, Options: []string{"Knee"}}
	s.RecordResponse(session.PatientResponse{QuestionID: "q0", Answer: "original"})

	c := s.Clone()
	c.Responses[0].Answer = "tampered"
	c.CurrentQuestion.Options[0] = "Hip"
	c.RecordResponse(session.PatientResponse{QuestionID: "q1"})

	if s.Responses[0].Answer != "original" {
		t.Errorf("original response mutated: %q", s.Responses[0].Answer)
	}
	if s.CurrentQuestion.Options[0] != "Knee" {
		t.Errorf("original question options mutated: %q", s.CurrentQuestion.Options[0])
	}
	if s.QuestionsAsked != 1 {
		t.Errorf("original QuestionsAsked = %d, want 1", s.QuestionsAsked)
	}
}

func TestSession_CheckInvariants(t *testing.T) {
	reviewedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(s *session.Session)
		wantErr bool
	}{
		{
			name:   "fresh session",
			mutate: func(s *session.Session) {},
		},
		{
			name:    "response count mismatch",
			mutate:  func(s *session.Session) { s.QuestionsAsked = 3 },
			wantErr: true,
		},
		{
			name: "suggestion while in progress",
			mutate: func(s *session.Session) {
				s.Suggestion = &session.Suggestion{Code: "M17.11"}
			},
			wantErr: true,
		},
		{
			name: "pending without suggestion",
			mutate: func(s *session.Session) {
				s.Status = session.StatusPendingReview
			},
		},
		{
			name: "reviewed without outcome",
			mutate: func(s *session.Session) {
				s.Status = session.StatusReviewed
				s.Suggestion = &session.Suggestion{Code: "M17.11"}
			},
			wantErr: true,
		},
		{
			name: "accepted with different code",
			mutate: func(s *session.Session) {
				s.Status = session.StatusReviewed
				s.Suggestion = &session.Suggestion{Code: "M17.11"}
				s.Review = &session.Review{ReviewedAt: reviewedAt, ClinicianID: "dr1", Decision: session.DecisionAccepted, FinalCode: "M25.561"}
			},
			wantErr: true,
		},
		{
			name: "rejected without suggestion",
			mutate: func(s *session.Session) {
				s.Status = session.StatusReviewed
				s.Review = &session.Review{ReviewedAt: reviewedAt, ClinicianID: "dr1", Decision: session.DecisionRejectedReplaced, FinalCode: "M25.561", Notes: "reason"}
			},
		},
		{
			name: "partial review",
			mutate: func(s *session.Session) {
				s.Status = session.StatusReviewed
				s.Review = &session.Review{Decision: session.DecisionRejectedReplaced, FinalCode: "M25.561"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.New("s1", "knee pain", time.Now())
			tt.mutate(s)

			err := s.CheckInvariants()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckInvariants() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, session.ErrInvariant) {
				t.Errorf("error = %v, want ErrInvariant", err)
			}
		})
	}
}

func TestQuestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       session.Question
		wantErr bool
	}{
		{"categorical with options", session.Question{ID: "q1", Text: "Where?", Type: session.QuestionCategorical, Options: []string{"Knee", "Hip"}}, false},
		{"categorical without options", session.Question{ID: "q1", Text: "Where?", Type: session.QuestionCategorical}, true},
		{"boolean without labels", session.Question{ID: "q3", Text: "Stairs?", Type: session.QuestionBoolean}, false},
		{"numeric", session.Question{ID: "q4", Text: "Pain 0-10?", Type: session.QuestionNumeric}, false},
		{"unknown type", session.Question{ID: "q5", Text: "?", Type: "freeform"}, true},
		{"missing id", session.Question{Text: "Where?", Type: session.QuestionDuration}, true},
		{"missing text", session.Question{ID: "q1", Type: session.QuestionDuration}, true},
		{"blank option", session.Question{ID: "q1", Text: "Where?", Type: session.QuestionCategorical, Options: []string{"Knee", " "}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPatientView_NeverExposesSuggestion(t *testing.T) {
	s := session.New("s1", "knee pain", time.Now())
	s.Status = session.StatusReviewed
	s.Suggestion = &session.Suggestion{Code: "M17.11", ConditionName: "Primary osteoarthritis, right knee", AuditToken: "tok"}
	s.Review = &session.Review{ReviewedAt: time.Now(), ClinicianID: "dr1", Decision: session.DecisionAccepted, FinalCode: "M17.11", Notes: "consistent"}

	data, err := json.Marshal(s.PatientView())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	for _, forbidden := range []string{"M17.11", "osteoarthritis", "icd10", "clinician", "decision", "audit"} {
		if strings.Contains(string(data), forbidden) {
			t.Errorf("patient view contains %q: %s", forbidden, data)
		}
	}
}

func TestQueueEntry_NullSuggestion(t *testing.T) {
	s := session.New("s1", "knee pain", time.Now())
	s.Status = session.StatusPendingReview

	data, err := json.Marshal(s.QueueEntry())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"suggested_icd10":null`) {
		t.Errorf("queue entry should carry null suggestion, got %s", data)
	}
}

func TestDetail_IncludesReview(t *testing.T) {
	s := session.New("s1", "knee pain", time.Now())
	s.RecordResponse(session.PatientResponse{QuestionID: "q1", QuestionText: "Where?", Answer: "Knee"})
	s.Status = session.StatusReviewed
	s.Suggestion = &session.Suggestion{Code: "M17.11", ConditionName: "OA"}
	s.Review = &session.Review{ReviewedAt: time.Now(), ClinicianID: "dr1", Decision: session.DecisionRejectedReplaced, FinalCode: "M25.561", Notes: "pain localized to the joint line"}

	d := s.Detail()
	if len(d.Responses) != 1 || d.Responses[0].Answer != "Knee" {
		t.Errorf("Detail().Responses = %+v", d.Responses)
	}
	if d.FinalCode == nil || *d.FinalCode != "M25.561" {
		t.Errorf("Detail().FinalCode = %v, want M25.561", d.FinalCode)
	}
	if d.Decision == nil || *d.Decision != session.DecisionRejectedReplaced {
		t.Errorf("Detail().Decision = %v", d.Decision)
	}
	if d.AuditToken != nil {
		t.Errorf("Detail().AuditToken = %q, want nil", *d.AuditToken)
	}
}

package session

import (
	"slices"
	"time"
)

// PatientView is the patient-safe projection of a session. It never carries
// suggestion or review information.
type PatientView struct {
	ID             string    `json:"session_id"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	QuestionsAsked int       `json:"questions_asked"`
}

// QueueEntry is the clinician work-queue projection.
type QueueEntry struct {
	ID                     string    `json:"session_id"`
	Status                 Status    `json:"status"`
	CreatedAt              time.Time `json:"created_at"`
	ChiefComplaint         string    `json:"chief_complaint"`
	QuestionsAsked         int       `json:"questions_asked"`
	SuggestedCode          *string   `json:"suggested_icd10"`
	SuggestedConditionName *string   `json:"suggested_condition_name"`
}

// Detail is the full clinician projection used during review.
type Detail struct {
	ID                     string            `json:"session_id"`
	Status                 Status            `json:"status"`
	CreatedAt              time.Time         `json:"created_at"`
	ChiefComplaint         string            `json:"chief_complaint"`
	Responses              []PatientResponse `json:"patient_responses"`
	QuestionsAsked         int               `json:"questions_asked"`
	SuggestedCode          *string           `json:"suggested_icd10"`
	SuggestedConditionName *string           `json:"suggested_condition_name"`
	AuditToken             *string           `json:"audit_token"`

	ReviewedAt  *time.Time `json:"reviewed_at"`
	ClinicianID *string    `json:"clinician_id"`
	Decision    *Decision  `json:"decision"`
	FinalCode   *string    `json:"final_icd10"`
	Notes       *string    `json:"clinician_notes"`
}

// PatientView projects the session for the patient-facing surface.
func (s *Session) PatientView() PatientView {
	return PatientView{
		ID:             s.ID,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
		QuestionsAsked: s.QuestionsAsked,
	}
}

// QueueEntry projects the session for the clinician queue.
func (s *Session) QueueEntry() QueueEntry {
	e := QueueEntry{
		ID:             s.ID,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
		ChiefComplaint: s.ChiefComplaint,
		QuestionsAsked: s.QuestionsAsked,
	}
	if s.Suggestion != nil {
		e.SuggestedCode = ptr(s.Suggestion.Code)
		e.SuggestedConditionName = ptr(s.Suggestion.ConditionName)
	}
	return e
}

// Detail projects every field of the session for clinician review.
func (s *Session) Detail() Detail {
	d := Detail{
		ID:             s.ID,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
		ChiefComplaint: s.ChiefComplaint,
		Responses:      slices.Clone(s.Responses),
		QuestionsAsked: s.QuestionsAsked,
	}
	if d.Responses == nil {
		d.Responses = []PatientResponse{}
	}
	if s.Suggestion != nil {
		d.SuggestedCode = ptr(s.Suggestion.Code)
		d.SuggestedConditionName = ptr(s.Suggestion.ConditionName)
		if s.Suggestion.AuditToken != "" {
			d.AuditToken = ptr(s.Suggestion.AuditToken)
		}
	}
	if r := s.Review; r != nil {
		d.ReviewedAt = ptr(r.ReviewedAt)
		d.ClinicianID = ptr(r.ClinicianID)
		d.Decision = ptr(r.Decision)
		d.FinalCode = ptr(r.FinalCode)
		d.Notes = ptr(r.Notes)
	}
	return d
}

func ptr[T any](v T) *T {
	return &v
}

package models

import "time"

// ThesisStatus is the lifecycle state of a thesis submission.
type ThesisStatus string

const (
	ThesisStatusDraft          ThesisStatus = "DRAFT"
	ThesisStatusSubmitted      ThesisStatus = "SUBMITTED"
	ThesisStatusUnderReview    ThesisStatus = "UNDER_REVIEW"
	ThesisStatusRevisionNeeded ThesisStatus = "REVISION_NEEDED"
	ThesisStatusApproved       ThesisStatus = "APPROVED"
	ThesisStatusRejected       ThesisStatus = "REJECTED"
	ThesisStatusPublished      ThesisStatus = "PUBLISHED"
)

// Thesis tracks a student's thesis through review and publication.
type Thesis struct {
	ID           string       `db:"id" json:"id"`
	Title        string       `db:"title" json:"title"`
	Abstract     string       `db:"abstract" json:"abstract"`
	StudentID    string       `db:"student_id" json:"student_id"`
	SupervisorID *string      `db:"supervisor_id" json:"supervisor_id,omitempty"`
	Status       ThesisStatus `db:"status" json:"status"`
	DecisionNote *string      `db:"decision_note" json:"decision_note,omitempty"`
	Documents    JSONStrings  `db:"documents" json:"documents"`
	SubmittedAt  *time.Time   `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`

	DocumentLinks []FileLink `db:"-" json:"document_links,omitempty"`
}

// CreateThesisRequest registers a new thesis draft.
type CreateThesisRequest struct {
	Title        string  `json:"title" validate:"required"`
	Abstract     string  `json:"abstract" validate:"required"`
	SupervisorID *string `json:"supervisor_id"`
}

// UpdateThesisRequest edits a thesis while it is editable.
type UpdateThesisRequest struct {
	Title        *string `json:"title"`
	Abstract     *string `json:"abstract"`
	SupervisorID *string `json:"supervisor_id"`
}

// ThesisDecisionRequest records a review decision.
type ThesisDecisionRequest struct {
	Status       ThesisStatus `json:"status" validate:"required"`
	DecisionNote *string      `json:"decision_note"`
}

// ThesisFilter encapsulates allowed search parameters for listing theses.
type ThesisFilter struct {
	StudentID    string
	SupervisorID string
	Status       *ThesisStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

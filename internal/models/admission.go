package models

import (
	"encoding/json"
	"time"
)

// AdmissionStatus is a stage in the linear admission pipeline.
type AdmissionStatus string

const (
	AdmissionStatusApplied              AdmissionStatus = "APPLIED"
	AdmissionStatusDocumentVerification AdmissionStatus = "DOCUMENT_VERIFICATION"
	AdmissionStatusInterviewScheduled   AdmissionStatus = "INTERVIEW_SCHEDULED"
	AdmissionStatusInterviewCompleted   AdmissionStatus = "INTERVIEW_COMPLETED"
	AdmissionStatusApproved             AdmissionStatus = "APPROVED"
	AdmissionStatusRejected             AdmissionStatus = "REJECTED"
	AdmissionStatusEnrolled             AdmissionStatus = "ENROLLED"
	AdmissionStatusCancelled            AdmissionStatus = "CANCELLED"
)

// Admission represents an application moving through the admission pipeline.
// PersonalDetails and EducationDetails are opaque JSON blobs supplied by the
// applicant form.
type Admission struct {
	ID                string          `db:"id" json:"id"`
	ApplicationNumber string          `db:"application_number" json:"application_number"`
	ApplicantName     string          `db:"applicant_name" json:"applicant_name"`
	Email             string          `db:"email" json:"email"`
	Phone             string          `db:"phone" json:"phone"`
	Program           string          `db:"program" json:"program"`
	Department        string          `db:"department" json:"department"`
	Batch             string          `db:"batch" json:"batch"`
	Status            AdmissionStatus `db:"status" json:"status"`
	PersonalDetails   json.RawMessage `db:"personal_details" json:"personal_details,omitempty"`
	EducationDetails  json.RawMessage `db:"education_details" json:"education_details,omitempty"`
	Documents         JSONStrings     `db:"documents" json:"documents"`
	StudentID         *string         `db:"student_id" json:"student_id,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`

	DocumentLinks []FileLink `db:"-" json:"document_links,omitempty"`
}

// CreateAdmissionRequest submits a new application. The application number is
// generated server-side.
type CreateAdmissionRequest struct {
	ApplicantName    string          `json:"applicant_name" validate:"required"`
	Email            string          `json:"email" validate:"required,email"`
	Phone            string          `json:"phone" validate:"required"`
	Program          string          `json:"program" validate:"required"`
	Department       string          `json:"department" validate:"required"`
	Batch            string          `json:"batch" validate:"required"`
	PersonalDetails  json.RawMessage `json:"personal_details"`
	EducationDetails json.RawMessage `json:"education_details"`
}

// UpdateAdmissionStatusRequest moves an application through the pipeline.
type UpdateAdmissionStatusRequest struct {
	Status AdmissionStatus `json:"status" validate:"required"`
}

// BulkAdmissionRequest submits several applications at once.
type BulkAdmissionRequest struct {
	Applications []CreateAdmissionRequest `json:"applications" validate:"required,min=1,dive"`
}

// BulkAdmissionResult reports the per-application outcome of a bulk submit.
type BulkAdmissionResult struct {
	ApplicationNumber string `json:"application_number,omitempty"`
	Email             string `json:"email"`
	Error             string `json:"error,omitempty"`
}

// AdmissionFilter encapsulates allowed search parameters for listing
// admissions.
type AdmissionFilter struct {
	Search     string
	Status     *AdmissionStatus
	Program    string
	Department string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

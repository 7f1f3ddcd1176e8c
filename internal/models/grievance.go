package models

import "time"

// GrievanceStatus is the lifecycle state of a grievance.
type GrievanceStatus string

const (
	GrievanceStatusSubmitted   GrievanceStatus = "SUBMITTED"
	GrievanceStatusUnderReview GrievanceStatus = "UNDER_REVIEW"
	GrievanceStatusInProgress  GrievanceStatus = "IN_PROGRESS"
	GrievanceStatusResolved    GrievanceStatus = "RESOLVED"
	GrievanceStatusRejected    GrievanceStatus = "REJECTED"
	GrievanceStatusClosed      GrievanceStatus = "CLOSED"
)

// Grievance represents a complaint submitted by a user. When IsAnonymous is
// set, the submitter reference is hidden from everyone except the submitter,
// admins and committee members.
type Grievance struct {
	ID          string          `db:"id" json:"id"`
	Subject     string          `db:"subject" json:"subject"`
	Description string          `db:"description" json:"description"`
	Category    string          `db:"category" json:"category"`
	Priority    string          `db:"priority" json:"priority"`
	Status      GrievanceStatus `db:"status" json:"status"`
	SubmittedBy *string         `db:"submitted_by" json:"submitted_by,omitempty"`
	AssignedTo  *string         `db:"assigned_to" json:"assigned_to,omitempty"`
	IsAnonymous bool            `db:"is_anonymous" json:"is_anonymous"`
	Resolution  *string         `db:"resolution" json:"resolution,omitempty"`
	ResolvedAt  *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	Attachments JSONStrings     `db:"attachments" json:"attachments"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	AttachmentLinks []FileLink `db:"-" json:"attachment_links,omitempty"`
}

// CreateGrievanceRequest files a new grievance.
type CreateGrievanceRequest struct {
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Priority    string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// UpdateGrievanceRequest edits a grievance while it is still SUBMITTED.
type UpdateGrievanceRequest struct {
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

// AssignGrievanceRequest routes a grievance to a committee member.
type AssignGrievanceRequest struct {
	AssignedTo string `json:"assigned_to" validate:"required"`
}

// UpdateGrievanceStatusRequest moves a grievance through its lifecycle.
// Resolution is required when moving to RESOLVED.
type UpdateGrievanceStatusRequest struct {
	Status     GrievanceStatus `json:"status" validate:"required"`
	Resolution *string         `json:"resolution"`
}

// GrievanceFilter encapsulates allowed search parameters for listing
// grievances.
type GrievanceFilter struct {
	Status      *GrievanceStatus
	Category    string
	Priority    string
	SubmittedBy string
	AssignedTo  string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

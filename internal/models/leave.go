package models

import "time"

// LeaveStatus is the lifecycle state of a leave application.
type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "PENDING"
	LeaveStatusApproved  LeaveStatus = "APPROVED"
	LeaveStatusRejected  LeaveStatus = "REJECTED"
	LeaveStatusCancelled LeaveStatus = "CANCELLED"
)

// Leave represents a leave application filed by a user.
type Leave struct {
	ID              string      `db:"id" json:"id"`
	UserID          string      `db:"user_id" json:"user_id"`
	Type            string      `db:"type" json:"type"`
	StartDate       time.Time   `db:"start_date" json:"start_date"`
	EndDate         time.Time   `db:"end_date" json:"end_date"`
	Reason          string      `db:"reason" json:"reason"`
	Status          LeaveStatus `db:"status" json:"status"`
	ApprovedBy      *string     `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason *string     `db:"rejection_reason" json:"rejection_reason,omitempty"`
	Attachments     JSONStrings `db:"attachments" json:"attachments"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`

	AttachmentLinks []FileLink `db:"-" json:"attachment_links,omitempty"`
}

// CreateLeaveRequest files a new leave application.
type CreateLeaveRequest struct {
	Type      string    `json:"type" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
}

// RejectLeaveRequest carries the mandatory reason for rejection.
type RejectLeaveRequest struct {
	RejectionReason string `json:"rejection_reason" validate:"required"`
}

// LeaveFilter encapsulates allowed search parameters for listing leaves.
type LeaveFilter struct {
	UserID    string
	Status    *LeaveStatus
	Type      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

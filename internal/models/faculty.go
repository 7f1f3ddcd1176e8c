package models

import "time"

// Faculty represents a teaching staff member. One user maps to at most one
// faculty record.
type Faculty struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	EmployeeID     string    `db:"employee_id" json:"employee_id"`
	Department     string    `db:"department" json:"department"`
	Designation    string    `db:"designation" json:"designation"`
	Specialization string    `db:"specialization" json:"specialization"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FacultyDetail carries the faculty row with user identity columns joined in.
type FacultyDetail struct {
	Faculty
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}

// CreateFacultyRequest is the admin payload for provisioning a faculty member
// along with a linked user account.
type CreateFacultyRequest struct {
	Email          string `json:"email" validate:"required,email"`
	FullName       string `json:"full_name" validate:"required"`
	EmployeeID     string `json:"employee_id" validate:"required"`
	Department     string `json:"department" validate:"required"`
	Designation    string `json:"designation" validate:"required"`
	Specialization string `json:"specialization"`
}

// UpdateFacultyRequest carries partial updates; nil fields stay untouched.
type UpdateFacultyRequest struct {
	FullName       *string `json:"full_name"`
	Department     *string `json:"department"`
	Designation    *string `json:"designation"`
	Specialization *string `json:"specialization"`
}

// FacultyFilter encapsulates allowed search parameters for listing faculty.
type FacultyFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

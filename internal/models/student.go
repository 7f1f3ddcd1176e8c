package models

import "time"

// AcademicStatus tracks a student's standing.
type AcademicStatus string

const (
	AcademicStatusActive     AcademicStatus = "ACTIVE"
	AcademicStatusOnLeave    AcademicStatus = "ON_LEAVE"
	AcademicStatusSuspended  AcademicStatus = "SUSPENDED"
	AcademicStatusGraduated  AcademicStatus = "GRADUATED"
	AcademicStatusWithdrawn  AcademicStatus = "WITHDRAWN"
)

// Student represents a learner registered at the institution. One user maps
// to at most one student record.
type Student struct {
	ID                 string         `db:"id" json:"id"`
	UserID             string         `db:"user_id" json:"user_id"`
	RegistrationNumber string         `db:"registration_number" json:"registration_number"`
	Batch              string         `db:"batch" json:"batch"`
	Program            string         `db:"program" json:"program"`
	Department         string         `db:"department" json:"department"`
	Semester           int            `db:"semester" json:"semester"`
	AcademicStatus     AcademicStatus `db:"academic_status" json:"academic_status"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentDetail carries the student row with user identity columns joined in.
type StudentDetail struct {
	Student
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}

// CreateStudentRequest is the admin payload for provisioning a student along
// with a linked user account. RegistrationNumber is generated when empty.
type CreateStudentRequest struct {
	Email              string `json:"email" validate:"required,email"`
	FullName           string `json:"full_name" validate:"required"`
	RegistrationNumber string `json:"registration_number"`
	Batch              string `json:"batch" validate:"required"`
	Program            string `json:"program" validate:"required"`
	Department         string `json:"department" validate:"required"`
	Semester           int    `json:"semester" validate:"gte=0"`
}

// UpdateStudentRequest carries partial updates; nil fields stay untouched.
type UpdateStudentRequest struct {
	FullName       *string         `json:"full_name"`
	Batch          *string         `json:"batch"`
	Program        *string         `json:"program"`
	Department     *string         `json:"department"`
	Semester       *int            `json:"semester" validate:"omitempty,gte=0"`
	AcademicStatus *AcademicStatus `json:"academic_status"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	Department string
	Program    string
	Batch      string
	Status     *AcademicStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

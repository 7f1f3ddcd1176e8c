package models

import "time"

// ExamStatus is the lifecycle state of an exam.
type ExamStatus string

const (
	ExamStatusScheduled ExamStatus = "SCHEDULED"
	ExamStatusPostponed ExamStatus = "POSTPONED"
	ExamStatusOngoing   ExamStatus = "ONGOING"
	ExamStatusCompleted ExamStatus = "COMPLETED"
	ExamStatusCancelled ExamStatus = "CANCELLED"
)

// Exam represents a scheduled examination.
type Exam struct {
	ID           string      `db:"id" json:"id"`
	Title        string      `db:"title" json:"title"`
	CourseCode   string      `db:"course_code" json:"course_code"`
	Type         string      `db:"type" json:"type"`
	StartTime    time.Time   `db:"start_time" json:"start_time"`
	EndTime      time.Time   `db:"end_time" json:"end_time"`
	Venue        string      `db:"venue" json:"venue"`
	TotalMarks   int         `db:"total_marks" json:"total_marks"`
	PassingMarks int         `db:"passing_marks" json:"passing_marks"`
	Status       ExamStatus  `db:"status" json:"status"`
	FacultyID    string      `db:"faculty_id" json:"faculty_id"`
	Materials    JSONStrings `db:"materials" json:"materials"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`

	MaterialLinks []FileLink `db:"-" json:"material_links,omitempty"`
}

// CreateExamRequest is the payload for scheduling an exam.
type CreateExamRequest struct {
	Title        string    `json:"title" validate:"required"`
	CourseCode   string    `json:"course_code" validate:"required"`
	Type         string    `json:"type" validate:"required"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required"`
	Venue        string    `json:"venue" validate:"required"`
	TotalMarks   int       `json:"total_marks" validate:"required,gt=0"`
	PassingMarks int       `json:"passing_marks" validate:"gte=0"`
	FacultyID    string    `json:"faculty_id" validate:"required"`
}

// UpdateExamRequest carries partial updates; nil fields stay untouched.
type UpdateExamRequest struct {
	Title        *string    `json:"title"`
	Type         *string    `json:"type"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	Venue        *string    `json:"venue"`
	TotalMarks   *int       `json:"total_marks" validate:"omitempty,gt=0"`
	PassingMarks *int       `json:"passing_marks" validate:"omitempty,gte=0"`
	FacultyID    *string    `json:"faculty_id"`
}

// UpdateExamStatusRequest moves an exam through its lifecycle.
type UpdateExamStatusRequest struct {
	Status ExamStatus `json:"status" validate:"required"`
}

// ExamFilter encapsulates allowed search parameters for listing exams.
type ExamFilter struct {
	Search     string
	CourseCode string
	Status     *ExamStatus
	FacultyID  string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

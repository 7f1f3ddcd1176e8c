package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/records-api/internal/models"
)

// ExamRepository manages persistence for exam records.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = `id, title, course_code, type, start_time, end_time, venue, total_marks, passing_marks, status, faculty_id, materials, created_at, updated_at`

// List returns exams matching the provided filters.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	base := "FROM exams WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(course_code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"start_time": true,
		"title":      true,
		"created_at": true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "start_time"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	_, pageSize, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", examColumns, base, sortBy, order, pageSize, offset)

	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}
	return exams, total, nil
}

// FindByID fetches an exam by ID.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// Create inserts a new exam record.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now
	const query = `INSERT INTO exams (id, title, course_code, type, start_time, end_time, venue, total_marks, passing_marks, status, faculty_id, materials, created_at, updated_at)
        VALUES (:id, :title, :course_code, :type, :start_time, :end_time, :venue, :total_marks, :passing_marks, :status, :faculty_id, :materials, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// Update modifies an existing exam.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET title = :title, course_code = :course_code, type = :type, start_time = :start_time, end_time = :end_time, venue = :venue, total_marks = :total_marks, passing_marks = :passing_marks, status = :status, faculty_id = :faculty_id, materials = :materials, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return nil
}

// Delete removes an exam row.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM exams WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

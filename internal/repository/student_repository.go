package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/records-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailColumns = `s.id, s.user_id, s.registration_number, s.batch, s.program, s.department, s.semester, s.academic_status, s.created_at, s.updated_at,
        u.email, u.full_name, u.active`

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN users u ON u.id = s.user_id"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("s.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("s.program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("s.batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.academic_status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(s.registration_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":           "u.full_name",
		"registration_number": "s.registration_number",
		"created_at":          "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	_, pageSize, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentDetailColumns, base, column, order, pageSize, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM students s JOIN users u ON u.id = s.user_id WHERE s.id = $1", studentDetailColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID fetches the student record owned by a user.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM students s JOIN users u ON u.id = s.user_id WHERE s.user_id = $1", studentDetailColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByRegistrationNumber checks uniqueness of a registration number.
func (r *StudentRepository) ExistsByRegistrationNumber(ctx context.Context, regNo string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM students WHERE registration_number = $1 LIMIT 1", regNo); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, registration_number, batch, program, department, semester, academic_status, created_at, updated_at)
        VALUES (:id, :user_id, :registration_number, :batch, :program, :department, :semester, :academic_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET batch = :batch, program = :program, department = :department, semester = :semester, academic_status = :academic_status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

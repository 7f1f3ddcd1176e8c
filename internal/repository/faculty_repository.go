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

// FacultyRepository manages persistence for faculty records.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

const facultyDetailColumns = `f.id, f.user_id, f.employee_id, f.department, f.designation, f.specialization, f.created_at, f.updated_at,
        u.email, u.full_name, u.active`

// List returns faculty members matching the provided filters.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultyDetail, int, error) {
	base := "FROM faculty f JOIN users u ON u.id = f.user_id"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("f.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(f.employee_id) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":   "u.full_name",
		"employee_id": "f.employee_id",
		"created_at":  "f.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "f.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	_, pageSize, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", facultyDetailColumns, base, column, order, pageSize, offset)

	var faculty []models.FacultyDetail
	if err := r.db.SelectContext(ctx, &faculty, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}
	return faculty, total, nil
}

// FindByID fetches a faculty detail by ID.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.FacultyDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty f JOIN users u ON u.id = f.user_id WHERE f.id = $1", facultyDetailColumns)
	var detail models.FacultyDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByEmployeeID checks uniqueness of an employee ID.
func (r *FacultyRepository) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM faculty WHERE employee_id = $1 LIMIT 1", employeeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check employee id: %w", err)
	}
	return true, nil
}

// Create inserts a new faculty record.
func (r *FacultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	if faculty.ID == "" {
		faculty.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if faculty.CreatedAt.IsZero() {
		faculty.CreatedAt = now
	}
	faculty.UpdatedAt = now
	const query = `INSERT INTO faculty (id, user_id, employee_id, department, designation, specialization, created_at, updated_at)
        VALUES (:id, :user_id, :employee_id, :department, :designation, :specialization, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, faculty); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update modifies an existing faculty record.
func (r *FacultyRepository) Update(ctx context.Context, faculty *models.Faculty) error {
	faculty.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET department = :department, designation = :designation, specialization = :specialization, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, faculty); err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return nil
}

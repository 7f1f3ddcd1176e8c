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

// AdmissionRepository manages persistence for admission applications.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs an AdmissionRepository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

const admissionColumns = `id, application_number, applicant_name, email, phone, program, department, batch, status, personal_details, education_details, documents, student_id, created_at, updated_at`

// List returns admissions matching the provided filters.
func (r *AdmissionRepository) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	base := "FROM admissions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(applicant_name) LIKE $%d OR LOWER(application_number) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"applicant_name":     true,
		"application_number": true,
		"created_at":         true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	_, pageSize, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", admissionColumns, base, sortBy, order, pageSize, offset)

	var admissions []models.Admission
	if err := r.db.SelectContext(ctx, &admissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list admissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count admissions: %w", err)
	}
	return admissions, total, nil
}

// FindByID fetches an admission by ID.
func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	query := fmt.Sprintf("SELECT %s FROM admissions WHERE id = $1", admissionColumns)
	var admission models.Admission
	if err := r.db.GetContext(ctx, &admission, query, id); err != nil {
		return nil, err
	}
	return &admission, nil
}

// FindByApplicationNumber fetches an admission by its public application
// number.
func (r *AdmissionRepository) FindByApplicationNumber(ctx context.Context, number string) (*models.Admission, error) {
	query := fmt.Sprintf("SELECT %s FROM admissions WHERE application_number = $1", admissionColumns)
	var admission models.Admission
	if err := r.db.GetContext(ctx, &admission, query, number); err != nil {
		return nil, err
	}
	return &admission, nil
}

// Create inserts a new admission application.
func (r *AdmissionRepository) Create(ctx context.Context, admission *models.Admission) error {
	if admission.ID == "" {
		admission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admission.CreatedAt.IsZero() {
		admission.CreatedAt = now
	}
	admission.UpdatedAt = now
	const query = `INSERT INTO admissions (id, application_number, applicant_name, email, phone, program, department, batch, status, personal_details, education_details, documents, student_id, created_at, updated_at)
        VALUES (:id, :application_number, :applicant_name, :email, :phone, :program, :department, :batch, :status, :personal_details, :education_details, :documents, :student_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admission); err != nil {
		return fmt.Errorf("create admission: %w", err)
	}
	return nil
}

// Update modifies an existing admission.
func (r *AdmissionRepository) Update(ctx context.Context, admission *models.Admission) error {
	admission.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admissions SET applicant_name = :applicant_name, email = :email, phone = :phone, program = :program, department = :department, batch = :batch, status = :status, personal_details = :personal_details, education_details = :education_details, documents = :documents, student_id = :student_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, admission); err != nil {
		return fmt.Errorf("update admission: %w", err)
	}
	return nil
}

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

// GrievanceRepository manages persistence for grievances.
type GrievanceRepository struct {
	db *sqlx.DB
}

// NewGrievanceRepository constructs a GrievanceRepository.
func NewGrievanceRepository(db *sqlx.DB) *GrievanceRepository {
	return &GrievanceRepository{db: db}
}

const grievanceColumns = `id, subject, description, category, priority, status, submitted_by, assigned_to, is_anonymous, resolution, resolved_at, attachments, created_at, updated_at`

// List returns grievances matching the provided filters.
func (r *GrievanceRepository) List(ctx context.Context, filter models.GrievanceFilter) ([]models.Grievance, int, error) {
	base := "FROM grievances WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.SubmittedBy != "" {
		conditions = append(conditions, fmt.Sprintf("submitted_by = $%d", len(args)+1))
		args = append(args, filter.SubmittedBy)
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"priority":   true,
		"created_at": true,
		"updated_at": true,
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", grievanceColumns, base, sortBy, order, pageSize, offset)

	var grievances []models.Grievance
	if err := r.db.SelectContext(ctx, &grievances, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grievances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grievances: %w", err)
	}
	return grievances, total, nil
}

// FindByID fetches a grievance by ID.
func (r *GrievanceRepository) FindByID(ctx context.Context, id string) (*models.Grievance, error) {
	query := fmt.Sprintf("SELECT %s FROM grievances WHERE id = $1", grievanceColumns)
	var grievance models.Grievance
	if err := r.db.GetContext(ctx, &grievance, query, id); err != nil {
		return nil, err
	}
	return &grievance, nil
}

// Create inserts a new grievance.
func (r *GrievanceRepository) Create(ctx context.Context, grievance *models.Grievance) error {
	if grievance.ID == "" {
		grievance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grievance.CreatedAt.IsZero() {
		grievance.CreatedAt = now
	}
	grievance.UpdatedAt = now
	const query = `INSERT INTO grievances (id, subject, description, category, priority, status, submitted_by, assigned_to, is_anonymous, resolution, resolved_at, attachments, created_at, updated_at)
        VALUES (:id, :subject, :description, :category, :priority, :status, :submitted_by, :assigned_to, :is_anonymous, :resolution, :resolved_at, :attachments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grievance); err != nil {
		return fmt.Errorf("create grievance: %w", err)
	}
	return nil
}

// Update modifies an existing grievance.
func (r *GrievanceRepository) Update(ctx context.Context, grievance *models.Grievance) error {
	grievance.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grievances SET subject = :subject, description = :description, category = :category, priority = :priority, status = :status, assigned_to = :assigned_to, resolution = :resolution, resolved_at = :resolved_at, attachments = :attachments, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grievance); err != nil {
		return fmt.Errorf("update grievance: %w", err)
	}
	return nil
}

// Delete removes a grievance row.
func (r *GrievanceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM grievances WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete grievance: %w", err)
	}
	return nil
}

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

// LeaveRepository manages persistence for leave applications.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs a LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `id, user_id, type, start_date, end_date, reason, status, approved_by, approved_at, rejection_reason, attachments, created_at, updated_at`

// List returns leave applications matching the provided filters.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	base := "FROM leaves WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"start_date": true,
		"created_at": true,
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", leaveColumns, base, sortBy, order, pageSize, offset)

	var leaves []models.Leave
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaves: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaves: %w", err)
	}
	return leaves, total, nil
}

// FindByID fetches a leave application by ID.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.Leave, error) {
	query := fmt.Sprintf("SELECT %s FROM leaves WHERE id = $1", leaveColumns)
	var leave models.Leave
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// FindOverlapping returns a user's pending or approved leaves whose date
// range intersects [start, end).
func (r *LeaveRepository) FindOverlapping(ctx context.Context, userID string, start, end time.Time) ([]models.Leave, error) {
	query := fmt.Sprintf(`SELECT %s FROM leaves
        WHERE user_id = $1 AND start_date < $3 AND end_date > $2 AND status IN ('PENDING', 'APPROVED')`, leaveColumns)
	var leaves []models.Leave
	if err := r.db.SelectContext(ctx, &leaves, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("find overlapping leaves: %w", err)
	}
	return leaves, nil
}

// Create inserts a new leave application.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = now
	}
	leave.UpdatedAt = now
	const query = `INSERT INTO leaves (id, user_id, type, start_date, end_date, reason, status, approved_by, approved_at, rejection_reason, attachments, created_at, updated_at)
        VALUES (:id, :user_id, :type, :start_date, :end_date, :reason, :status, :approved_by, :approved_at, :rejection_reason, :attachments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// Update modifies an existing leave application.
func (r *LeaveRepository) Update(ctx context.Context, leave *models.Leave) error {
	leave.UpdatedAt = time.Now().UTC()
	const query = `UPDATE leaves SET type = :type, start_date = :start_date, end_date = :end_date, reason = :reason, status = :status, approved_by = :approved_by, approved_at = :approved_at, rejection_reason = :rejection_reason, attachments = :attachments, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("update leave: %w", err)
	}
	return nil
}

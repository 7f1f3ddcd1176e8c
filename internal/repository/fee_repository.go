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

// FeeRepository manages persistence for fee records.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

const feeColumns = `id, student_id, type, amount, late_fee, paid_amount, due_date, status, payment_method, receipt_number, paid_at, created_at, updated_at`

// List returns fees matching the provided filters.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error) {
	base := "FROM fees WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"due_date":   true,
		"amount":     true,
		"created_at": true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "due_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	_, pageSize, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", feeColumns, base, sortBy, order, pageSize, offset)

	var fees []models.Fee
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fees: %w", err)
	}
	return fees, total, nil
}

// FindByID fetches a fee by ID.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	query := fmt.Sprintf("SELECT %s FROM fees WHERE id = $1", feeColumns)
	var fee models.Fee
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// Create inserts a new fee record.
func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if fee.CreatedAt.IsZero() {
		fee.CreatedAt = now
	}
	fee.UpdatedAt = now
	const query = `INSERT INTO fees (id, student_id, type, amount, late_fee, paid_amount, due_date, status, payment_method, receipt_number, paid_at, created_at, updated_at)
        VALUES (:id, :student_id, :type, :amount, :late_fee, :paid_amount, :due_date, :status, :payment_method, :receipt_number, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee: %w", err)
	}
	return nil
}

// Update modifies an existing fee.
func (r *FeeRepository) Update(ctx context.Context, fee *models.Fee) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fees SET type = :type, amount = :amount, late_fee = :late_fee, paid_amount = :paid_amount, due_date = :due_date, status = :status, payment_method = :payment_method, receipt_number = :receipt_number, paid_at = :paid_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update fee: %w", err)
	}
	return nil
}

// Delete removes a fee row.
func (r *FeeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM fees WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete fee: %w", err)
	}
	return nil
}

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

// AuditRepository persists the append-only audit trail. There is no update
// or delete path on purpose.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog stores an audit log entry.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, details, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :details, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns audit entries matching the provided filters, newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	baseQuery := `FROM audit_logs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, filter.Action)
	}
	if filter.Resource != "" {
		conditions = append(conditions, fmt.Sprintf("resource = $%d", len(args)+1))
		args = append(args, filter.Resource)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	_, pageSize, offset := clampPage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT id, user_id, action, resource, resource_id, details, ip_address, user_agent, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	return logs, total, nil
}

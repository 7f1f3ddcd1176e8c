package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditService exposes the append-only audit trail. Writes happen through
// Record; there is no mutation surface.
type AuditService struct {
	audits auditRepository
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(audits auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{audits: audits, logger: logger}
}

// Record appends an audit entry. Failures are logged and swallowed so the
// request that triggered the entry never fails on audit problems.
func (s *AuditService) Record(ctx context.Context, log *models.AuditLog) {
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", log.Action),
			zap.String("resource", log.Resource),
			zap.Error(err),
		)
	}
}

// List returns audit entries matching the filter, newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.audits.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, paginationOf(filter.Page, filter.PageSize, total), nil
}

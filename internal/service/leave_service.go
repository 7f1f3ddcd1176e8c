package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

type leaveRepository interface {
	List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error)
	FindByID(ctx context.Context, id string) (*models.Leave, error)
	FindOverlapping(ctx context.Context, userID string, start, end time.Time) ([]models.Leave, error)
	Create(ctx context.Context, leave *models.Leave) error
	Update(ctx context.Context, leave *models.Leave) error
}

// LeaveService provides leave application use cases.
type LeaveService struct {
	leaves      leaveRepository
	users       grievanceUserRepository
	attachments *AttachmentManager
	notifier    Notifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(leaves leaveRepository, users grievanceUserRepository, attachments *AttachmentManager, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LeaveService{
		leaves:      leaves,
		users:       users,
		attachments: attachments,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

// List returns leave applications matching the filter.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, *models.Pagination, error) {
	leaves, total, err := s.leaves.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	for i := range leaves {
		leaves[i].AttachmentLinks = s.attachments.Links(leaves[i].Attachments)
	}
	return leaves, paginationOf(filter.Page, filter.PageSize, total), nil
}

// Get returns one leave application.
func (s *LeaveService) Get(ctx context.Context, id string) (*models.Leave, error) {
	leave, err := s.leaves.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave application")
	}
	leave.AttachmentLinks = s.attachments.Links(leave.Attachments)
	return leave, nil
}

// Apply files a new leave application. The date range must be forward and
// must not overlap any of the applicant's pending or approved leaves.
func (s *LeaveService) Apply(ctx context.Context, userID string, req models.CreateLeaveRequest) (*models.Leave, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	overlapping, err := s.leaves.FindOverlapping(ctx, userID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check overlapping leaves")
	}
	if len(overlapping) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "leave overlaps an existing pending or approved application")
	}

	leave := &models.Leave{
		UserID:      userID,
		Type:        req.Type,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Reason:      req.Reason,
		Status:      models.LeaveStatusPending,
		Attachments: models.JSONStrings{},
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave application")
	}
	return leave, nil
}

// Approve grants a pending leave, stamping the approver and time.
func (s *LeaveService) Approve(ctx context.Context, id string, approverID string) (*models.Leave, error) {
	leave, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != models.LeaveStatusPending {
		return nil, appErrors.InvalidTransition("leave", string(leave.Status), string(models.LeaveStatusApproved))
	}

	now := time.Now().UTC()
	leave.Status = models.LeaveStatusApproved
	leave.ApprovedBy = &approverID
	leave.ApprovedAt = &now

	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve leave")
	}

	s.notifyApplicant(ctx, leave)
	return leave, nil
}

// Reject declines a pending leave with a mandatory reason.
func (s *LeaveService) Reject(ctx context.Context, id string, approverID string, req models.RejectLeaveRequest) (*models.Leave, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}

	leave, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != models.LeaveStatusPending {
		return nil, appErrors.InvalidTransition("leave", string(leave.Status), string(models.LeaveStatusRejected))
	}

	now := time.Now().UTC()
	leave.Status = models.LeaveStatusRejected
	leave.ApprovedBy = &approverID
	leave.ApprovedAt = &now
	leave.RejectionReason = &req.RejectionReason

	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject leave")
	}

	s.notifyApplicant(ctx, leave)
	return leave, nil
}

// Cancel withdraws a pending leave. Only the applicant may cancel.
func (s *LeaveService) Cancel(ctx context.Context, id string, viewer Viewer) (*models.Leave, error) {
	leave, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer.Role != models.RoleAdmin && leave.UserID != viewer.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the applicant may cancel this leave")
	}
	if leave.Status != models.LeaveStatusPending {
		return nil, appErrors.InvalidTransition("leave", string(leave.Status), string(models.LeaveStatusCancelled))
	}

	leave.Status = models.LeaveStatusCancelled
	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel leave")
	}
	return leave, nil
}

// AttachFiles uploads supporting documents. The leave must exist before
// anything touches storage.
func (s *LeaveService) AttachFiles(ctx context.Context, id string, files []UploadFile, viewer Viewer) (*models.Leave, error) {
	leave, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer.Role != models.RoleAdmin && leave.UserID != viewer.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the applicant may attach files")
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}

	keys, err := s.attachments.Save("leaves/"+leave.ID, files)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachments")
	}

	leave.Attachments = append(leave.Attachments, keys...)
	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave attachments")
	}
	leave.AttachmentLinks = s.attachments.Links(leave.Attachments)
	return leave, nil
}

func (s *LeaveService) notifyApplicant(ctx context.Context, leave *models.Leave) {
	applicant, err := s.users.FindByID(ctx, leave.UserID)
	if err != nil {
		s.logger.Warn("failed to load leave applicant for notification", zap.Error(err))
		return
	}
	s.notifier.Notify(mailer.EventLeaveStatus, applicant.Email, map[string]string{
		"start_date": leave.StartDate.Format("2006-01-02"),
		"end_date":   leave.EndDate.Format("2006-01-02"),
		"status":     string(leave.Status),
	})
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

type grievanceRepository interface {
	List(ctx context.Context, filter models.GrievanceFilter) ([]models.Grievance, int, error)
	FindByID(ctx context.Context, id string) (*models.Grievance, error)
	Create(ctx context.Context, grievance *models.Grievance) error
	Update(ctx context.Context, grievance *models.Grievance) error
	Delete(ctx context.Context, id string) error
}

type grievanceUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// grievanceTransitions is the grievance lifecycle allow-list.
var grievanceTransitions = map[models.GrievanceStatus][]models.GrievanceStatus{
	models.GrievanceStatusSubmitted:   {models.GrievanceStatusUnderReview},
	models.GrievanceStatusUnderReview: {models.GrievanceStatusInProgress},
	models.GrievanceStatusInProgress:  {models.GrievanceStatusResolved, models.GrievanceStatusRejected},
	models.GrievanceStatusResolved:    {models.GrievanceStatusClosed},
	models.GrievanceStatusRejected:    {models.GrievanceStatusClosed},
	models.GrievanceStatusClosed:      {},
}

// Viewer identifies who is reading or acting on a record, for ownership and
// anonymity decisions.
type Viewer struct {
	UserID string
	Role   models.UserRole
}

// GrievanceService provides grievance use cases.
type GrievanceService struct {
	grievances  grievanceRepository
	users       grievanceUserRepository
	attachments *AttachmentManager
	notifier    Notifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGrievanceService constructs a GrievanceService.
func NewGrievanceService(grievances grievanceRepository, users grievanceUserRepository, attachments *AttachmentManager, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *GrievanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &GrievanceService{
		grievances:  grievances,
		users:       users,
		attachments: attachments,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

// List returns grievances matching the filter, anonymized for the viewer.
func (s *GrievanceService) List(ctx context.Context, filter models.GrievanceFilter, viewer Viewer) ([]models.Grievance, *models.Pagination, error) {
	grievances, total, err := s.grievances.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grievances")
	}
	for i := range grievances {
		s.anonymize(&grievances[i], viewer)
		grievances[i].AttachmentLinks = s.attachments.Links(grievances[i].Attachments)
	}
	return grievances, paginationOf(filter.Page, filter.PageSize, total), nil
}

// Get returns one grievance, anonymized for the viewer.
func (s *GrievanceService) Get(ctx context.Context, id string, viewer Viewer) (*models.Grievance, error) {
	grievance, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.anonymize(grievance, viewer)
	grievance.AttachmentLinks = s.attachments.Links(grievance.Attachments)
	return grievance, nil
}

// Submit files a new grievance, optionally anonymous.
func (s *GrievanceService) Submit(ctx context.Context, req models.CreateGrievanceRequest, viewer Viewer) (*models.Grievance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grievance payload")
	}

	submitter := viewer.UserID
	grievance := &models.Grievance{
		Subject:     req.Subject,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      models.GrievanceStatusSubmitted,
		SubmittedBy: &submitter,
		IsAnonymous: req.IsAnonymous,
		Attachments: models.JSONStrings{},
	}
	if err := s.grievances.Create(ctx, grievance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grievance")
	}
	return grievance, nil
}

// Update edits a grievance. Only the submitter or an admin may edit, and
// only while it is still SUBMITTED.
func (s *GrievanceService) Update(ctx context.Context, id string, req models.UpdateGrievanceRequest, viewer Viewer) (*models.Grievance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grievance payload")
	}

	grievance, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrAdmin(grievance, viewer); err != nil {
		return nil, err
	}
	if grievance.Status != models.GrievanceStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot edit a %s grievance", grievance.Status))
	}

	if req.Subject != nil {
		grievance.Subject = *req.Subject
	}
	if req.Description != nil {
		grievance.Description = *req.Description
	}
	if req.Category != nil {
		grievance.Category = *req.Category
	}
	if req.Priority != nil {
		grievance.Priority = *req.Priority
	}

	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grievance")
	}
	s.anonymize(grievance, viewer)
	return grievance, nil
}

// Delete removes a grievance. Only the submitter or an admin may delete, and
// only while it is still SUBMITTED.
func (s *GrievanceService) Delete(ctx context.Context, id string, viewer Viewer) error {
	grievance, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(grievance, viewer); err != nil {
		return err
	}
	if grievance.Status != models.GrievanceStatusSubmitted {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot delete a %s grievance", grievance.Status))
	}
	if err := s.grievances.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grievance")
	}
	return nil
}

// Assign routes the grievance to a committee member.
func (s *GrievanceService) Assign(ctx context.Context, id string, req models.AssignGrievanceRequest) (*models.Grievance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	grievance, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if grievance.Status == models.GrievanceStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot assign a closed grievance")
	}

	assignee, err := s.users.FindByID(ctx, req.AssignedTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
	}
	if assignee.Role != models.RoleGrievanceCommittee && assignee.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignee must be a grievance committee member")
	}

	grievance.AssignedTo = &assignee.ID
	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign grievance")
	}
	return grievance, nil
}

// UpdateStatus moves a grievance through its lifecycle. Moving to RESOLVED
// requires a resolution note and stamps the resolution time.
func (s *GrievanceService) UpdateStatus(ctx context.Context, id string, req models.UpdateGrievanceStatusRequest) (*models.Grievance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	grievance, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(grievanceTransitions[grievance.Status], req.Status) {
		return nil, appErrors.InvalidTransition("grievance", string(grievance.Status), string(req.Status))
	}

	if req.Status == models.GrievanceStatusResolved {
		if req.Resolution == nil || *req.Resolution == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "resolution is required when resolving")
		}
		now := time.Now().UTC()
		grievance.Resolution = req.Resolution
		grievance.ResolvedAt = &now
	}

	grievance.Status = req.Status
	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grievance status")
	}

	s.notifySubmitter(ctx, grievance)

	return grievance, nil
}

// AttachFiles uploads grievance attachments. The grievance must exist before
// anything touches storage.
func (s *GrievanceService) AttachFiles(ctx context.Context, id string, files []UploadFile, viewer Viewer) (*models.Grievance, error) {
	grievance, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrAdmin(grievance, viewer); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}

	keys, err := s.attachments.Save("grievances/"+grievance.ID, files)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachments")
	}

	grievance.Attachments = append(grievance.Attachments, keys...)
	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grievance attachments")
	}
	s.anonymize(grievance, viewer)
	grievance.AttachmentLinks = s.attachments.Links(grievance.Attachments)
	return grievance, nil
}

func (s *GrievanceService) find(ctx context.Context, id string) (*models.Grievance, error) {
	grievance, err := s.grievances.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grievance")
	}
	return grievance, nil
}

// anonymize hides the submitter on anonymous grievances from everyone except
// the submitter, admins and committee members.
func (s *GrievanceService) anonymize(grievance *models.Grievance, viewer Viewer) {
	if !grievance.IsAnonymous {
		return
	}
	if viewer.Role == models.RoleAdmin || viewer.Role == models.RoleGrievanceCommittee {
		return
	}
	if grievance.SubmittedBy != nil && *grievance.SubmittedBy == viewer.UserID {
		return
	}
	grievance.SubmittedBy = nil
}

func (s *GrievanceService) requireOwnerOrAdmin(grievance *models.Grievance, viewer Viewer) error {
	if viewer.Role == models.RoleAdmin {
		return nil
	}
	if grievance.SubmittedBy != nil && *grievance.SubmittedBy == viewer.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the submitter may modify this grievance")
}

func (s *GrievanceService) notifySubmitter(ctx context.Context, grievance *models.Grievance) {
	if grievance.SubmittedBy == nil {
		return
	}
	submitter, err := s.users.FindByID(ctx, *grievance.SubmittedBy)
	if err != nil {
		s.logger.Warn("failed to load grievance submitter for notification", zap.Error(err))
		return
	}
	s.notifier.Notify(mailer.EventGrievanceUpdate, submitter.Email, map[string]string{
		"subject": grievance.Subject,
		"status":  string(grievance.Status),
	})
}

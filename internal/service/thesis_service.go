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

type thesisRepository interface {
	List(ctx context.Context, filter models.ThesisFilter) ([]models.Thesis, int, error)
	FindByID(ctx context.Context, id string) (*models.Thesis, error)
	Create(ctx context.Context, thesis *models.Thesis) error
	Update(ctx context.Context, thesis *models.Thesis) error
	Delete(ctx context.Context, id string) error
}

// thesisTransitions is the thesis review allow-list. REVISION_NEEDED loops
// back through SUBMITTED.
var thesisTransitions = map[models.ThesisStatus][]models.ThesisStatus{
	models.ThesisStatusDraft:          {models.ThesisStatusSubmitted},
	models.ThesisStatusSubmitted:      {models.ThesisStatusUnderReview},
	models.ThesisStatusUnderReview:    {models.ThesisStatusRevisionNeeded, models.ThesisStatusApproved, models.ThesisStatusRejected},
	models.ThesisStatusRevisionNeeded: {models.ThesisStatusSubmitted},
	models.ThesisStatusApproved:       {models.ThesisStatusPublished},
	models.ThesisStatusRejected:       {},
	models.ThesisStatusPublished:      {},
}

// ThesisService provides thesis submission and review use cases.
type ThesisService struct {
	theses      thesisRepository
	students    feeStudentRepository
	attachments *AttachmentManager
	notifier    Notifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewThesisService constructs a ThesisService.
func NewThesisService(theses thesisRepository, students feeStudentRepository, attachments *AttachmentManager, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *ThesisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ThesisService{
		theses:      theses,
		students:    students,
		attachments: attachments,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

// List returns theses matching the filter with signed document links.
func (s *ThesisService) List(ctx context.Context, filter models.ThesisFilter) ([]models.Thesis, *models.Pagination, error) {
	theses, total, err := s.theses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list theses")
	}
	for i := range theses {
		theses[i].DocumentLinks = s.attachments.Links(theses[i].Documents)
	}
	return theses, paginationOf(filter.Page, filter.PageSize, total), nil
}

// Get returns one thesis with signed document links.
func (s *ThesisService) Get(ctx context.Context, id string) (*models.Thesis, error) {
	thesis, err := s.theses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	thesis.DocumentLinks = s.attachments.Links(thesis.Documents)
	return thesis, nil
}

// Create registers a new thesis draft for a student.
func (s *ThesisService) Create(ctx context.Context, studentID string, req models.CreateThesisRequest) (*models.Thesis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid thesis payload")
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	thesis := &models.Thesis{
		Title:        req.Title,
		Abstract:     req.Abstract,
		StudentID:    studentID,
		SupervisorID: req.SupervisorID,
		Status:       models.ThesisStatusDraft,
		Documents:    models.JSONStrings{},
	}
	if err := s.theses.Create(ctx, thesis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create thesis")
	}
	return thesis, nil
}

// Update edits a thesis while it is in DRAFT or REVISION_NEEDED.
func (s *ThesisService) Update(ctx context.Context, id string, req models.UpdateThesisRequest) (*models.Thesis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid thesis payload")
	}

	thesis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !thesisEditable(thesis.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot edit a %s thesis", thesis.Status))
	}

	if req.Title != nil {
		thesis.Title = *req.Title
	}
	if req.Abstract != nil {
		thesis.Abstract = *req.Abstract
	}
	if req.SupervisorID != nil {
		thesis.SupervisorID = req.SupervisorID
	}

	if err := s.theses.Update(ctx, thesis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update thesis")
	}
	return thesis, nil
}

// Submit moves a draft or revised thesis into review, stamping the
// submission time.
func (s *ThesisService) Submit(ctx context.Context, id string) (*models.Thesis, error) {
	thesis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(thesisTransitions[thesis.Status], models.ThesisStatusSubmitted) {
		return nil, appErrors.InvalidTransition("thesis", string(thesis.Status), string(models.ThesisStatusSubmitted))
	}

	now := time.Now().UTC()
	thesis.Status = models.ThesisStatusSubmitted
	thesis.SubmittedAt = &now

	if err := s.theses.Update(ctx, thesis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit thesis")
	}
	return thesis, nil
}

// Decide records a review decision, moving the thesis per the allow-list.
// Revision requests and rejections require a decision note.
func (s *ThesisService) Decide(ctx context.Context, id string, req models.ThesisDecisionRequest) (*models.Thesis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	thesis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(thesisTransitions[thesis.Status], req.Status) {
		return nil, appErrors.InvalidTransition("thesis", string(thesis.Status), string(req.Status))
	}

	needsNote := req.Status == models.ThesisStatusRevisionNeeded || req.Status == models.ThesisStatusRejected
	if needsNote && (req.DecisionNote == nil || *req.DecisionNote == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a decision note is required")
	}

	thesis.Status = req.Status
	if req.DecisionNote != nil {
		thesis.DecisionNote = req.DecisionNote
	}

	if err := s.theses.Update(ctx, thesis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record thesis decision")
	}

	s.notifyStudent(ctx, thesis)
	return thesis, nil
}

// AttachDocuments uploads thesis documents while the thesis is editable. The
// thesis must exist before anything touches storage.
func (s *ThesisService) AttachDocuments(ctx context.Context, id string, files []UploadFile) (*models.Thesis, error) {
	thesis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !thesisEditable(thesis.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot attach documents to a %s thesis", thesis.Status))
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}

	keys, err := s.attachments.Save("thesis/"+thesis.ID, files)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store documents")
	}

	thesis.Documents = append(thesis.Documents, keys...)
	if err := s.theses.Update(ctx, thesis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update thesis documents")
	}
	thesis.DocumentLinks = s.attachments.Links(thesis.Documents)
	return thesis, nil
}

// Delete removes a thesis that never left DRAFT.
func (s *ThesisService) Delete(ctx context.Context, id string) error {
	thesis, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if thesis.Status != models.ThesisStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot delete a %s thesis", thesis.Status))
	}
	if err := s.theses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete thesis")
	}
	return nil
}

func thesisEditable(status models.ThesisStatus) bool {
	return status == models.ThesisStatusDraft || status == models.ThesisStatusRevisionNeeded
}

func (s *ThesisService) notifyStudent(ctx context.Context, thesis *models.Thesis) {
	student, err := s.students.FindByID(ctx, thesis.StudentID)
	if err != nil {
		s.logger.Warn("failed to load thesis student for notification", zap.Error(err))
		return
	}
	s.notifier.Notify(mailer.EventThesisDecision, student.Email, map[string]string{
		"title":  thesis.Title,
		"status": string(thesis.Status),
	})
}

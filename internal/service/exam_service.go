package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id string) error
}

// examTransitions is the allow-list of exam lifecycle moves. COMPLETED is
// terminal; everything else may still be cancelled.
var examTransitions = map[models.ExamStatus][]models.ExamStatus{
	models.ExamStatusScheduled: {models.ExamStatusPostponed, models.ExamStatusOngoing, models.ExamStatusCancelled},
	models.ExamStatusPostponed: {models.ExamStatusScheduled, models.ExamStatusOngoing, models.ExamStatusCancelled},
	models.ExamStatusOngoing:   {models.ExamStatusCompleted, models.ExamStatusCancelled},
	models.ExamStatusCompleted: {},
	models.ExamStatusCancelled: {},
}

// ExamService provides exam scheduling use cases. The exam schedule is the
// most read-heavy surface, so List goes through the optional cache.
type ExamService struct {
	exams       examRepository
	attachments *AttachmentManager
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewExamService constructs an ExamService. cache may be nil.
func NewExamService(exams examRepository, attachments *AttachmentManager, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ExamService{exams: exams, attachments: attachments, cache: cache, validator: validate, logger: logger}
}

type cachedExamList struct {
	Exams []models.Exam `json:"exams"`
	Total int           `json:"total"`
}

// List returns exams matching the filter, with signed material links. Link
// tokens are minted per read, so only the raw rows are cached.
func (s *ExamService) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, *models.Pagination, error) {
	key := examListCacheKey(filter)

	var cached cachedExamList
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		for i := range cached.Exams {
			cached.Exams[i].MaterialLinks = s.attachments.Links(cached.Exams[i].Materials)
		}
		return cached.Exams, paginationOf(filter.Page, filter.PageSize, cached.Total), nil
	}

	exams, total, err := s.exams.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	_ = s.cache.Set(ctx, key, cachedExamList{Exams: exams, Total: total}, 0)

	for i := range exams {
		exams[i].MaterialLinks = s.attachments.Links(exams[i].Materials)
	}
	return exams, paginationOf(filter.Page, filter.PageSize, total), nil
}

func examListCacheKey(filter models.ExamFilter) string {
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	from, to := "", ""
	if filter.From != nil {
		from = filter.From.UTC().Format("20060102T150405")
	}
	if filter.To != nil {
		to = filter.To.UTC().Format("20060102T150405")
	}
	return fmt.Sprintf("exams:list:%s:%s:%s:%s:%s:%s:%d:%d:%s:%s",
		filter.Search, filter.CourseCode, status, filter.FacultyID, from, to,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
}

func (s *ExamService) invalidateListCache(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "exams:list:*")
}

// Get returns one exam by ID with signed material links.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	exam.MaterialLinks = s.attachments.Links(exam.Materials)
	return exam, nil
}

// Create schedules a new exam.
func (s *ExamService) Create(ctx context.Context, req models.CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if req.PassingMarks > req.TotalMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "passing marks cannot exceed total marks")
	}

	exam := &models.Exam{
		Title:        req.Title,
		CourseCode:   req.CourseCode,
		Type:         req.Type,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Venue:        req.Venue,
		TotalMarks:   req.TotalMarks,
		PassingMarks: req.PassingMarks,
		Status:       models.ExamStatusScheduled,
		FacultyID:    req.FacultyID,
		Materials:    models.JSONStrings{},
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	s.invalidateListCache(ctx)
	return exam, nil
}

// Update edits exam details. Completed and cancelled exams are frozen.
func (s *ExamService) Update(ctx context.Context, id string, req models.UpdateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Status == models.ExamStatusCompleted || exam.Status == models.ExamStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot edit a %s exam", exam.Status))
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Type != nil {
		exam.Type = *req.Type
	}
	if req.StartTime != nil {
		exam.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		exam.EndTime = *req.EndTime
	}
	if req.Venue != nil {
		exam.Venue = *req.Venue
	}
	if req.TotalMarks != nil {
		exam.TotalMarks = *req.TotalMarks
	}
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}
	if req.FacultyID != nil {
		exam.FacultyID = *req.FacultyID
	}

	if !exam.EndTime.After(exam.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if exam.PassingMarks > exam.TotalMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "passing marks cannot exceed total marks")
	}

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
	}
	s.invalidateListCache(ctx)
	return exam, nil
}

// UpdateStatus moves an exam through its lifecycle per the allow-list.
func (s *ExamService) UpdateStatus(ctx context.Context, id string, req models.UpdateExamStatusRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(examTransitions[exam.Status], req.Status) {
		return nil, appErrors.InvalidTransition("exam", string(exam.Status), string(req.Status))
	}

	exam.Status = req.Status
	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam status")
	}
	s.invalidateListCache(ctx)
	return exam, nil
}

// AttachMaterials uploads exam material files. The exam must exist before
// anything touches storage.
func (s *ExamService) AttachMaterials(ctx context.Context, id string, files []UploadFile) (*models.Exam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}

	keys, err := s.attachments.Save("exams/"+exam.ID, files)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store materials")
	}

	exam.Materials = append(exam.Materials, keys...)
	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam materials")
	}
	s.invalidateListCache(ctx)
	exam.MaterialLinks = s.attachments.Links(exam.Materials)
	return exam, nil
}

// Delete removes an exam. Only exams that never ran may be deleted.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if exam.Status != models.ExamStatusScheduled && exam.Status != models.ExamStatusCancelled {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot delete a %s exam", exam.Status))
	}
	if err := s.exams.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	s.invalidateListCache(ctx)
	return nil
}

func transitionAllowed[T comparable](allowed []T, next T) bool {
	for _, candidate := range allowed {
		if candidate == next {
			return true
		}
	}
	return false
}

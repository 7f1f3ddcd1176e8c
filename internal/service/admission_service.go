package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

type admissionRepository interface {
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error)
	FindByID(ctx context.Context, id string) (*models.Admission, error)
	FindByApplicationNumber(ctx context.Context, number string) (*models.Admission, error)
	Create(ctx context.Context, admission *models.Admission) error
	Update(ctx context.Context, admission *models.Admission) error
}

// admissionTransitions is the linear pipeline allow-list. ENROLLED is only
// reachable through Enroll, never through a plain status update.
var admissionTransitions = map[models.AdmissionStatus][]models.AdmissionStatus{
	models.AdmissionStatusApplied:              {models.AdmissionStatusDocumentVerification, models.AdmissionStatusCancelled},
	models.AdmissionStatusDocumentVerification: {models.AdmissionStatusInterviewScheduled, models.AdmissionStatusCancelled},
	models.AdmissionStatusInterviewScheduled:   {models.AdmissionStatusInterviewCompleted, models.AdmissionStatusCancelled},
	models.AdmissionStatusInterviewCompleted:   {models.AdmissionStatusApproved, models.AdmissionStatusRejected, models.AdmissionStatusCancelled},
	models.AdmissionStatusApproved:             {models.AdmissionStatusCancelled},
	models.AdmissionStatusRejected:             {models.AdmissionStatusCancelled},
	models.AdmissionStatusEnrolled:             {},
	models.AdmissionStatusCancelled:            {},
}

// bulkChunkSize bounds how many applications are processed concurrently per
// bulk submission batch.
const bulkChunkSize = 10

// AdmissionService provides admission pipeline use cases.
type AdmissionService struct {
	admissions  admissionRepository
	students    authStudentRepository
	users       studentUserRepository
	attachments *AttachmentManager
	notifier    Notifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdmissionService constructs an AdmissionService.
func NewAdmissionService(admissions admissionRepository, students authStudentRepository, users studentUserRepository, attachments *AttachmentManager, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AdmissionService{
		admissions:  admissions,
		students:    students,
		users:       users,
		attachments: attachments,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

// List returns admissions matching the filter with signed document links.
func (s *AdmissionService) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, *models.Pagination, error) {
	admissions, total, err := s.admissions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admissions")
	}
	for i := range admissions {
		admissions[i].DocumentLinks = s.attachments.Links(admissions[i].Documents)
	}
	return admissions, paginationOf(filter.Page, filter.PageSize, total), nil
}

// Get returns one admission by ID with signed document links.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.Admission, error) {
	admission, err := s.admissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission")
	}
	admission.DocumentLinks = s.attachments.Links(admission.Documents)
	return admission, nil
}

// Submit files a new application in APPLIED state with a generated unique
// application number.
func (s *AdmissionService) Submit(ctx context.Context, req models.CreateAdmissionRequest) (*models.Admission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}

	number, err := generateUniqueNumber(ctx, "APP-"+req.Batch, s.applicationNumberExists)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate application number")
	}

	admission := &models.Admission{
		ApplicationNumber: number,
		ApplicantName:     req.ApplicantName,
		Email:             req.Email,
		Phone:             req.Phone,
		Program:           req.Program,
		Department:        req.Department,
		Batch:             req.Batch,
		Status:            models.AdmissionStatusApplied,
		PersonalDetails:   req.PersonalDetails,
		EducationDetails:  req.EducationDetails,
		Documents:         models.JSONStrings{},
	}
	if err := s.admissions.Create(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admission")
	}
	return admission, nil
}

// BulkSubmit files several applications, processed in fixed-size chunks with
// one goroutine per application inside a chunk. Per-application failures are
// reported, not fatal.
func (s *AdmissionService) BulkSubmit(ctx context.Context, req models.BulkAdmissionRequest) ([]models.BulkAdmissionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk admission payload")
	}

	results := make([]models.BulkAdmissionResult, len(req.Applications))
	for start := 0; start < len(req.Applications); start += bulkChunkSize {
		end := start + bulkChunkSize
		if end > len(req.Applications) {
			end = len(req.Applications)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				app := req.Applications[idx]
				admission, err := s.Submit(ctx, app)
				if err != nil {
					results[idx] = models.BulkAdmissionResult{Email: app.Email, Error: err.Error()}
					return
				}
				results[idx] = models.BulkAdmissionResult{
					ApplicationNumber: admission.ApplicationNumber,
					Email:             app.Email,
				}
			}(i)
		}
		wg.Wait()
	}
	return results, nil
}

// UpdateStatus moves an application along the pipeline per the allow-list.
func (s *AdmissionService) UpdateStatus(ctx context.Context, id string, req models.UpdateAdmissionStatusRequest) (*models.Admission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if req.Status == models.AdmissionStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment must go through the enroll operation")
	}

	admission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(admissionTransitions[admission.Status], req.Status) {
		return nil, appErrors.InvalidTransition("admission", string(admission.Status), string(req.Status))
	}

	admission.Status = req.Status
	if err := s.admissions.Update(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admission status")
	}

	s.notifier.Notify(mailer.EventAdmissionStage, admission.Email, map[string]string{
		"application_number": admission.ApplicationNumber,
		"status":             string(admission.Status),
	})

	return admission, nil
}

// Enroll converts an approved application into a student: a user account and
// student record are provisioned and the credentials mailed to the applicant.
func (s *AdmissionService) Enroll(ctx context.Context, id string) (*models.Admission, error) {
	admission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission.Status != models.AdmissionStatusApproved {
		return nil, appErrors.InvalidTransition("admission", string(admission.Status), string(models.AdmissionStatusEnrolled))
	}

	taken, err := s.users.ExistsByEmail(ctx, admission.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "applicant email already has an account")
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        admission.Email,
		PasswordHash: string(hash),
		FullName:     admission.ApplicantName,
		Role:         models.RoleStudent,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	regNo, err := generateUniqueNumber(ctx, "REG-"+admission.Batch, s.students.ExistsByRegistrationNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate registration number")
	}

	student := &models.Student{
		ID:                 uuid.NewString(),
		UserID:             user.ID,
		RegistrationNumber: regNo,
		Batch:              admission.Batch,
		Program:            admission.Program,
		Department:         admission.Department,
		Semester:           1,
		AcademicStatus:     models.AcademicStatusActive,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	admission.Status = models.AdmissionStatusEnrolled
	admission.StudentID = &student.ID
	if err := s.admissions.Update(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark admission enrolled")
	}

	s.notifier.Notify(mailer.EventEnrollment, admission.Email, map[string]string{
		"registration_number": regNo,
		"temporary_password":  tempPassword,
	})

	return admission, nil
}

// AttachDocuments uploads application documents. The admission must exist
// before anything touches storage.
func (s *AdmissionService) AttachDocuments(ctx context.Context, id string, files []UploadFile) (*models.Admission, error) {
	admission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}

	keys, err := s.attachments.Save("admissions/"+admission.ID, files)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store documents")
	}

	admission.Documents = append(admission.Documents, keys...)
	if err := s.admissions.Update(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admission documents")
	}
	admission.DocumentLinks = s.attachments.Links(admission.Documents)
	return admission, nil
}

func (s *AdmissionService) applicationNumberExists(ctx context.Context, number string) (bool, error) {
	if _, err := s.admissions.FindByApplicationNumber(ctx, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

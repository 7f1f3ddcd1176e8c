package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultyDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.FacultyDetail, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error)
	Create(ctx context.Context, faculty *models.Faculty) error
	Update(ctx context.Context, faculty *models.Faculty) error
}

// FacultyService provides faculty record use cases.
type FacultyService struct {
	faculty   facultyRepository
	users     studentUserRepository
	notifier  Notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService constructs a FacultyService.
func NewFacultyService(faculty facultyRepository, users studentUserRepository, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &FacultyService{faculty: faculty, users: users, notifier: notifier, validator: validate, logger: logger}
}

// List returns faculty members matching the filter.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultyDetail, *models.Pagination, error) {
	faculty, total, err := s.faculty.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return faculty, paginationOf(filter.Page, filter.PageSize, total), nil
}

// Get returns one faculty member by ID.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.FacultyDetail, error) {
	detail, err := s.faculty.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	return detail, nil
}

// Create provisions a faculty member and a linked user account with a
// temporary password mailed to them.
func (s *FacultyService) Create(ctx context.Context, req models.CreateFacultyRequest) (*models.FacultyDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	exists, err := s.faculty.ExistsByEmployeeID(ctx, req.EmployeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check employee id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "employee id is already taken")
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
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleFaculty,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	faculty := &models.Faculty{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		EmployeeID:     req.EmployeeID,
		Department:     req.Department,
		Designation:    req.Designation,
		Specialization: req.Specialization,
	}
	if err := s.faculty.Create(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty member")
	}

	s.notifier.Notify(mailer.EventAccountProvision, user.Email, map[string]string{
		"temporary_password": tempPassword,
	})

	return &models.FacultyDetail{
		Faculty:  *faculty,
		Email:    user.Email,
		FullName: user.FullName,
		Active:   user.Active,
	}, nil
}

// Update applies partial changes to a faculty member and its linked user.
func (s *FacultyService) Update(ctx context.Context, id string, req models.UpdateFacultyRequest) (*models.FacultyDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	faculty := detail.Faculty
	if req.Department != nil {
		faculty.Department = *req.Department
	}
	if req.Designation != nil {
		faculty.Designation = *req.Designation
	}
	if req.Specialization != nil {
		faculty.Specialization = *req.Specialization
	}

	if err := s.faculty.Update(ctx, &faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty member")
	}

	fullName := detail.FullName
	if req.FullName != nil && *req.FullName != detail.FullName {
		user, err := s.users.FindByID(ctx, faculty.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
		}
		user.FullName = *req.FullName
		if err := s.users.Update(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
		fullName = user.FullName
	}

	return &models.FacultyDetail{
		Faculty:  faculty,
		Email:    detail.Email,
		FullName: fullName,
		Active:   detail.Active,
	}, nil
}

// Deactivate disables the linked user account.
func (s *FacultyService) Deactivate(ctx context.Context, id string) error {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Deactivate(ctx, detail.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate faculty account")
	}
	return nil
}

package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	ExistsByRegistrationNumber(ctx context.Context, regNo string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

type studentUserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	Deactivate(ctx context.Context, id string) error
}

// StudentService provides student record use cases.
type StudentService struct {
	students  studentRepository
	users     studentUserRepository
	notifier  Notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentRepository, users studentUserRepository, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &StudentService{students: students, users: users, notifier: notifier, validator: validate, logger: logger}
}

// List returns students matching the filter with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationOf(filter.Page, filter.PageSize, total), nil
}

// Get returns one student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByUserID returns the student record owned by a user account.
func (s *StudentService) GetByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found for user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create provisions a student and a linked user account with a temporary
// password. The credentials are mailed to the student.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	regNo := req.RegistrationNumber
	if regNo == "" {
		regNo, err = generateUniqueNumber(ctx, "REG-"+req.Batch, s.students.ExistsByRegistrationNumber)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate registration number")
		}
	} else {
		exists, err := s.students.ExistsByRegistrationNumber(ctx, regNo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration number is already taken")
		}
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
		Role:         models.RoleStudent,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	semester := req.Semester
	if semester == 0 {
		semester = 1
	}
	student := &models.Student{
		ID:                 uuid.NewString(),
		UserID:             user.ID,
		RegistrationNumber: regNo,
		Batch:              req.Batch,
		Program:            req.Program,
		Department:         req.Department,
		Semester:           semester,
		AcademicStatus:     models.AcademicStatusActive,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.notifier.Notify(mailer.EventAccountProvision, user.Email, map[string]string{
		"temporary_password": tempPassword,
	})

	return &models.StudentDetail{
		Student:  *student,
		Email:    user.Email,
		FullName: user.FullName,
		Active:   user.Active,
	}, nil
}

// Update applies partial changes to a student and its linked user.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	student := detail.Student
	if req.Batch != nil {
		student.Batch = *req.Batch
	}
	if req.Program != nil {
		student.Program = *req.Program
	}
	if req.Department != nil {
		student.Department = *req.Department
	}
	if req.Semester != nil {
		student.Semester = *req.Semester
	}
	if req.AcademicStatus != nil {
		student.AcademicStatus = *req.AcademicStatus
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	fullName := detail.FullName
	if req.FullName != nil && *req.FullName != detail.FullName {
		user, err := s.users.FindByID(ctx, student.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
		}
		user.FullName = *req.FullName
		if err := s.users.Update(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
		fullName = user.FullName
	}

	return &models.StudentDetail{
		Student:  student,
		Email:    detail.Email,
		FullName: fullName,
		Active:   detail.Active,
	}, nil
}

// Deactivate soft-deletes a student by disabling the linked user account.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Deactivate(ctx, detail.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student account")
	}
	return nil
}

func paginationOf(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

// generateTempPassword returns a short random credential for provisioned
// accounts. Users are told to change it on first login.
func generateTempPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// generateUniqueNumber builds prefix-hex candidates until the exists check
// clears, bounded to a few attempts.
func generateUniqueNumber(ctx context.Context, prefix string, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < 5; i++ {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(buf))
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not generate unique number with prefix %s", prefix)
}

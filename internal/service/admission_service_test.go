package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

// admissionStore is guarded because BulkSubmit creates concurrently.
type admissionStore struct {
	mu     sync.Mutex
	items  map[string]*models.Admission
	nextID int
}

func newAdmissionStore(admissions ...*models.Admission) *admissionStore {
	s := &admissionStore{items: make(map[string]*models.Admission)}
	for _, a := range admissions {
		s.items[a.ID] = a
	}
	return s
}

func (s *admissionStore) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Admission
	for _, a := range s.items {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (s *admissionStore) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (s *admissionStore) FindByApplicationNumber(ctx context.Context, number string) (*models.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.ApplicationNumber == number {
			clone := *a
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *admissionStore) Create(ctx context.Context, admission *models.Admission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if admission.ID == "" {
		s.nextID++
		admission.ID = fmt.Sprintf("adm-%d", s.nextID)
	}
	s.items[admission.ID] = admission
	return nil
}

func (s *admissionStore) Update(ctx context.Context, admission *models.Admission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[admission.ID]; !ok {
		return sql.ErrNoRows
	}
	s.items[admission.ID] = admission
	return nil
}

func admissionRequest(email string) models.CreateAdmissionRequest {
	return models.CreateAdmissionRequest{
		ApplicantName: "Asha Verma",
		Email:         email,
		Phone:         "+910000000000",
		Program:       "BSc",
		Department:    "Physics",
		Batch:         "2027",
	}
}

func newAdmissionService(store *admissionStore, students *studentStore, users *userStore, notifier Notifier) *AdmissionService {
	return NewAdmissionService(store, students, users, newTestAttachments(newMemStore()), notifier, nil, nil)
}

func TestAdmissionServiceSubmit(t *testing.T) {
	store := newAdmissionStore()
	svc := newAdmissionService(store, newStudentStore(), newUserStore(), nil)

	admission, err := svc.Submit(context.Background(), admissionRequest("asha@example.com"))
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusApplied, admission.Status)
	assert.True(t, strings.HasPrefix(admission.ApplicationNumber, "APP-2027-"))
	assert.Len(t, store.items, 1)
}

func TestAdmissionServicePipelineTransitions(t *testing.T) {
	store := newAdmissionStore(&models.Admission{ID: "adm-1", Email: "asha@example.com", Status: models.AdmissionStatusApplied})
	svc := newAdmissionService(store, newStudentStore(), newUserStore(), nil)

	// Stages cannot be skipped.
	_, err := svc.UpdateStatus(context.Background(), "adm-1", models.UpdateAdmissionStatusRequest{Status: models.AdmissionStatusApproved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	admission, err := svc.UpdateStatus(context.Background(), "adm-1", models.UpdateAdmissionStatusRequest{Status: models.AdmissionStatusDocumentVerification})
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusDocumentVerification, admission.Status)
}

func TestAdmissionServiceStatusUpdateNotifiesApplicant(t *testing.T) {
	store := newAdmissionStore(&models.Admission{
		ID: "adm-1", ApplicationNumber: "APP-2027-aaa", Email: "asha@example.com",
		Status: models.AdmissionStatusApplied,
	})
	notifier := &recordingNotifier{}
	svc := newAdmissionService(store, newStudentStore(), newUserStore(), notifier)

	_, err := svc.UpdateStatus(context.Background(), "adm-1", models.UpdateAdmissionStatusRequest{Status: models.AdmissionStatusCancelled})
	require.NoError(t, err)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, mailer.EventAdmissionStage, notifier.events[0])
	assert.Equal(t, "asha@example.com", notifier.recipients[0])
}

func TestAdmissionServiceEnrolledOnlyViaEnroll(t *testing.T) {
	store := newAdmissionStore(&models.Admission{ID: "adm-1", Email: "asha@example.com", Status: models.AdmissionStatusApproved})
	svc := newAdmissionService(store, newStudentStore(), newUserStore(), nil)

	_, err := svc.UpdateStatus(context.Background(), "adm-1", models.UpdateAdmissionStatusRequest{Status: models.AdmissionStatusEnrolled})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceEnroll(t *testing.T) {
	store := newAdmissionStore(&models.Admission{
		ID: "adm-1", ApplicantName: "Asha Verma", Email: "asha@example.com",
		Program: "BSc", Department: "Physics", Batch: "2027",
		Status: models.AdmissionStatusApproved,
	})
	students := newStudentStore()
	users := newUserStore()
	notifier := &recordingNotifier{}
	svc := newAdmissionService(store, students, users, notifier)

	admission, err := svc.Enroll(context.Background(), "adm-1")
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusEnrolled, admission.Status)
	require.NotNil(t, admission.StudentID)

	require.Len(t, students.created, 1)
	student := students.created[0]
	assert.Equal(t, *admission.StudentID, student.ID)
	assert.True(t, strings.HasPrefix(student.RegistrationNumber, "REG-2027-"))
	assert.Equal(t, 1, student.Semester)
	assert.Equal(t, models.AcademicStatusActive, student.AcademicStatus)

	// A user account was provisioned for the applicant.
	account, err := users.FindByID(context.Background(), student.UserID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", account.Email)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.True(t, account.Active)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, mailer.EventEnrollment, notifier.events[0])
	assert.NotEmpty(t, notifier.data[0]["temporary_password"])

	// Enrolling twice fails: the pipeline is already terminal.
	_, err = svc.Enroll(context.Background(), "adm-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceEnrollRequiresApproval(t *testing.T) {
	store := newAdmissionStore(&models.Admission{ID: "adm-1", Email: "asha@example.com", Status: models.AdmissionStatusInterviewCompleted})
	svc := newAdmissionService(store, newStudentStore(), newUserStore(), nil)

	_, err := svc.Enroll(context.Background(), "adm-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceEnrollRejectsTakenEmail(t *testing.T) {
	store := newAdmissionStore(&models.Admission{ID: "adm-1", Email: "asha@example.com", Status: models.AdmissionStatusApproved})
	users := newUserStore(&models.User{ID: "u1", Email: "asha@example.com"})
	svc := newAdmissionService(store, newStudentStore(), users, nil)

	_, err := svc.Enroll(context.Background(), "adm-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceBulkSubmitReportsPerItem(t *testing.T) {
	store := newAdmissionStore()
	svc := newAdmissionService(store, newStudentStore(), newUserStore(), nil)

	bad := admissionRequest("not-an-email")
	results, err := svc.BulkSubmit(context.Background(), models.BulkAdmissionRequest{
		Applications: []models.CreateAdmissionRequest{
			admissionRequest("one@example.com"),
			bad,
			admissionRequest("two@example.com"),
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NotEmpty(t, results[0].ApplicationNumber)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, results[1].ApplicationNumber)
	assert.NotEmpty(t, results[1].Error)
	assert.NotEmpty(t, results[2].ApplicationNumber)
	assert.Len(t, store.items, 2)
}

func TestAdmissionServiceAttachDocuments(t *testing.T) {
	disk := newMemStore()
	store := newAdmissionStore(&models.Admission{ID: "adm-1", Email: "asha@example.com", Status: models.AdmissionStatusApplied})
	svc := NewAdmissionService(store, newStudentStore(), newUserStore(), newTestAttachments(disk), nil, nil, nil)

	admission, err := svc.AttachDocuments(context.Background(), "adm-1", uploads("marksheet.pdf"))
	require.NoError(t, err)
	require.Len(t, admission.Documents, 1)
	assert.True(t, strings.HasPrefix(admission.Documents[0], "admissions/adm-1/"))
	require.Len(t, admission.DocumentLinks, 1)

	_, err = svc.AttachDocuments(context.Background(), "ghost", uploads("marksheet.pdf"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Len(t, disk.saved, 1)
}

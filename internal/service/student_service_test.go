package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

func createStudentRequest() models.CreateStudentRequest {
	return models.CreateStudentRequest{
		Email:      "student@example.com",
		FullName:   "Ravi Kumar",
		Batch:      "2026",
		Program:    "BSc",
		Department: "Physics",
	}
}

func TestStudentServiceCreateProvisionsAccount(t *testing.T) {
	students := newStudentStore()
	users := newUserStore()
	notifier := &recordingNotifier{}
	svc := NewStudentService(students, users, notifier, nil, nil)

	detail, err := svc.Create(context.Background(), createStudentRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(detail.RegistrationNumber, "REG-2026-"))
	assert.Equal(t, 1, detail.Semester)
	assert.Equal(t, models.AcademicStatusActive, detail.AcademicStatus)

	account, err := users.FindByID(context.Background(), detail.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.True(t, account.Active)

	// Credentials go out by mail.
	require.Len(t, notifier.events, 1)
	assert.Equal(t, mailer.EventAccountProvision, notifier.events[0])
	assert.NotEmpty(t, notifier.data[0]["temporary_password"])
}

func TestStudentServiceCreateRejectsTakenEmail(t *testing.T) {
	users := newUserStore(&models.User{ID: "u1", Email: "student@example.com"})
	svc := NewStudentService(newStudentStore(), users, nil, nil, nil)

	_, err := svc.Create(context.Background(), createStudentRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateRejectsTakenRegistrationNumber(t *testing.T) {
	students := newStudentStore(&models.StudentDetail{
		Student: models.Student{ID: "stu-1", RegistrationNumber: "REG-2026-taken"},
	})
	svc := NewStudentService(students, newUserStore(), nil, nil, nil)

	req := createStudentRequest()
	req.RegistrationNumber = "REG-2026-taken"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdate(t *testing.T) {
	students := newStudentStore(&models.StudentDetail{
		Student:  models.Student{ID: "stu-1", UserID: "u1", Semester: 2, AcademicStatus: models.AcademicStatusActive},
		Email:    "student@example.com",
		FullName: "Ravi Kumar",
		Active:   true,
	})
	users := newUserStore(&models.User{ID: "u1", FullName: "Ravi Kumar", Active: true})
	svc := NewStudentService(students, users, nil, nil, nil)

	semester := 3
	status := models.AcademicStatusOnLeave
	name := "Ravi K. Kumar"
	detail, err := svc.Update(context.Background(), "stu-1", models.UpdateStudentRequest{
		Semester:       &semester,
		AcademicStatus: &status,
		FullName:       &name,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, detail.Semester)
	assert.Equal(t, models.AcademicStatusOnLeave, detail.AcademicStatus)
	assert.Equal(t, name, detail.FullName)

	// The name change propagated to the linked user.
	account, err := users.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, name, account.FullName)
}

func TestStudentServiceGetByUserID(t *testing.T) {
	students := newStudentStore(&models.StudentDetail{
		Student: models.Student{ID: "stu-1", UserID: "u1"},
	})
	svc := NewStudentService(students, newUserStore(), nil, nil, nil)

	detail, err := svc.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", detail.ID)

	_, err = svc.GetByUserID(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeactivate(t *testing.T) {
	students := newStudentStore(&models.StudentDetail{
		Student: models.Student{ID: "stu-1", UserID: "u1"},
	})
	users := newUserStore(&models.User{ID: "u1", Active: true})
	svc := NewStudentService(students, users, nil, nil, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "stu-1"))
	account, err := users.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, account.Active)

	err = svc.Deactivate(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

type leaveStore struct {
	items  map[string]*models.Leave
	nextID int
}

func newLeaveStore(leaves ...*models.Leave) *leaveStore {
	s := &leaveStore{items: make(map[string]*models.Leave)}
	for _, l := range leaves {
		s.items[l.ID] = l
	}
	return s
}

func (s *leaveStore) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	var out []models.Leave
	for _, l := range s.items {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (s *leaveStore) FindByID(ctx context.Context, id string) (*models.Leave, error) {
	l, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *l
	return &clone, nil
}

func (s *leaveStore) FindOverlapping(ctx context.Context, userID string, start, end time.Time) ([]models.Leave, error) {
	var out []models.Leave
	for _, l := range s.items {
		if l.UserID != userID {
			continue
		}
		if l.Status != models.LeaveStatusPending && l.Status != models.LeaveStatusApproved {
			continue
		}
		if l.StartDate.Before(end) && l.EndDate.After(start) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *leaveStore) Create(ctx context.Context, leave *models.Leave) error {
	if leave.ID == "" {
		s.nextID++
		leave.ID = fmt.Sprintf("leave-%d", s.nextID)
	}
	s.items[leave.ID] = leave
	return nil
}

func (s *leaveStore) Update(ctx context.Context, leave *models.Leave) error {
	if _, ok := s.items[leave.ID]; !ok {
		return sql.ErrNoRows
	}
	s.items[leave.ID] = leave
	return nil
}

func leaveRequest(start, end time.Time) models.CreateLeaveRequest {
	return models.CreateLeaveRequest{
		Type:      "CASUAL",
		StartDate: start,
		EndDate:   end,
		Reason:    "family event",
	}
}

func TestLeaveServiceApply(t *testing.T) {
	store := newLeaveStore()
	svc := NewLeaveService(store, newUserStore(), newTestAttachments(newMemStore()), nil, nil, nil)

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	leave, err := svc.Apply(context.Background(), "u1", leaveRequest(start, start.AddDate(0, 0, 3)))
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusPending, leave.Status)
	assert.Equal(t, "u1", leave.UserID)
}

func TestLeaveServiceApplyRejectsInvertedRange(t *testing.T) {
	svc := NewLeaveService(newLeaveStore(), newUserStore(), newTestAttachments(newMemStore()), nil, nil, nil)

	start := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	_, err := svc.Apply(context.Background(), "u1", leaveRequest(start, start.AddDate(0, 0, -1)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceApplyRejectsOverlap(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	existing := &models.Leave{
		ID:        "leave-1",
		UserID:    "u1",
		Status:    models.LeaveStatusApproved,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 5),
	}
	svc := NewLeaveService(newLeaveStore(existing), newUserStore(), newTestAttachments(newMemStore()), nil, nil, nil)

	_, err := svc.Apply(context.Background(), "u1", leaveRequest(start.AddDate(0, 0, 3), start.AddDate(0, 0, 8)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// A different user is unaffected by the overlap.
	_, err = svc.Apply(context.Background(), "u2", leaveRequest(start.AddDate(0, 0, 3), start.AddDate(0, 0, 8)))
	require.NoError(t, err)

	// Cancelled leaves do not block new applications either.
	existing.Status = models.LeaveStatusCancelled
	_, err = svc.Apply(context.Background(), "u1", leaveRequest(start.AddDate(0, 0, 3), start.AddDate(0, 0, 8)))
	require.NoError(t, err)
}

func TestLeaveServiceApproveStampsApprover(t *testing.T) {
	applicant := &models.User{ID: "u1", Email: "applicant@example.com"}
	store := newLeaveStore(&models.Leave{
		ID:        "leave-1",
		UserID:    "u1",
		Status:    models.LeaveStatusPending,
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
	})
	notifier := &recordingNotifier{}
	svc := NewLeaveService(store, newUserStore(applicant), newTestAttachments(newMemStore()), notifier, nil, nil)

	leave, err := svc.Approve(context.Background(), "leave-1", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, leave.Status)
	require.NotNil(t, leave.ApprovedBy)
	assert.Equal(t, "staff-1", *leave.ApprovedBy)
	assert.NotNil(t, leave.ApprovedAt)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, mailer.EventLeaveStatus, notifier.events[0])
	assert.Equal(t, "applicant@example.com", notifier.recipients[0])
	assert.Equal(t, "2026-10-01", notifier.data[0]["start_date"])
}

func TestLeaveServiceApproveOnlyPending(t *testing.T) {
	store := newLeaveStore(&models.Leave{ID: "leave-1", UserID: "u1", Status: models.LeaveStatusRejected})
	svc := NewLeaveService(store, newUserStore(), newTestAttachments(newMemStore()), nil, nil, nil)

	_, err := svc.Approve(context.Background(), "leave-1", "staff-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceRejectRequiresReason(t *testing.T) {
	store := newLeaveStore(&models.Leave{ID: "leave-1", UserID: "u1", Status: models.LeaveStatusPending})
	svc := NewLeaveService(store, newUserStore(), newTestAttachments(newMemStore()), nil, nil, nil)

	_, err := svc.Reject(context.Background(), "leave-1", "staff-1", models.RejectLeaveRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	leave, err := svc.Reject(context.Background(), "leave-1", "staff-1", models.RejectLeaveRequest{RejectionReason: "insufficient balance"})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusRejected, leave.Status)
	require.NotNil(t, leave.RejectionReason)
	assert.Equal(t, "insufficient balance", *leave.RejectionReason)
	require.NotNil(t, leave.ApprovedBy)
	assert.Equal(t, "staff-1", *leave.ApprovedBy)
}

func TestLeaveServiceCancel(t *testing.T) {
	store := newLeaveStore(&models.Leave{ID: "leave-1", UserID: "u1", Status: models.LeaveStatusPending})
	svc := NewLeaveService(store, newUserStore(), newTestAttachments(newMemStore()), nil, nil, nil)

	// Someone else's leave cannot be cancelled.
	_, err := svc.Cancel(context.Background(), "leave-1", Viewer{UserID: "u2", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	leave, err := svc.Cancel(context.Background(), "leave-1", Viewer{UserID: "u1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusCancelled, leave.Status)

	// Once cancelled it cannot be cancelled again.
	_, err = svc.Cancel(context.Background(), "leave-1", Viewer{UserID: "u1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceCancelByAdmin(t *testing.T) {
	store := newLeaveStore(&models.Leave{ID: "leave-1", UserID: "u1", Status: models.LeaveStatusPending})
	svc := NewLeaveService(store, newUserStore(), newTestAttachments(newMemStore()), nil, nil, nil)

	leave, err := svc.Cancel(context.Background(), "leave-1", Viewer{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusCancelled, leave.Status)
}

func TestLeaveServiceAttachFilesOwnerOnly(t *testing.T) {
	disk := newMemStore()
	store := newLeaveStore(&models.Leave{ID: "leave-1", UserID: "u1", Status: models.LeaveStatusPending})
	svc := NewLeaveService(store, newUserStore(), newTestAttachments(disk), nil, nil, nil)

	_, err := svc.AttachFiles(context.Background(), "leave-1", uploads("cert.pdf"), Viewer{UserID: "u2", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, disk.saved)

	leave, err := svc.AttachFiles(context.Background(), "leave-1", uploads("cert.pdf"), Viewer{UserID: "u1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, leave.Attachments, 1)
	require.Len(t, leave.AttachmentLinks, 1)
	assert.Len(t, disk.saved, 1)
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

type grievanceStore struct {
	items  map[string]*models.Grievance
	nextID int
}

func newGrievanceStore(grievances ...*models.Grievance) *grievanceStore {
	s := &grievanceStore{items: make(map[string]*models.Grievance)}
	for _, g := range grievances {
		s.items[g.ID] = g
	}
	return s
}

func (s *grievanceStore) List(ctx context.Context, filter models.GrievanceFilter) ([]models.Grievance, int, error) {
	var out []models.Grievance
	for _, g := range s.items {
		out = append(out, *g)
	}
	return out, len(out), nil
}

func (s *grievanceStore) FindByID(ctx context.Context, id string) (*models.Grievance, error) {
	g, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *g
	return &clone, nil
}

func (s *grievanceStore) Create(ctx context.Context, grievance *models.Grievance) error {
	if grievance.ID == "" {
		s.nextID++
		grievance.ID = fmt.Sprintf("grv-%d", s.nextID)
	}
	s.items[grievance.ID] = grievance
	return nil
}

func (s *grievanceStore) Update(ctx context.Context, grievance *models.Grievance) error {
	if _, ok := s.items[grievance.ID]; !ok {
		return sql.ErrNoRows
	}
	s.items[grievance.ID] = grievance
	return nil
}

func (s *grievanceStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func newGrievanceService(store *grievanceStore, users *userStore, notifier Notifier) *GrievanceService {
	return NewGrievanceService(store, users, newTestAttachments(newMemStore()), notifier, nil, nil)
}

func anonymousGrievance(id, submitter string) *models.Grievance {
	return &models.Grievance{
		ID:          id,
		Subject:     "Broken lab equipment",
		Status:      models.GrievanceStatusSubmitted,
		SubmittedBy: &submitter,
		IsAnonymous: true,
	}
}

func TestGrievanceServiceSubmit(t *testing.T) {
	store := newGrievanceStore()
	svc := newGrievanceService(store, newUserStore(), nil)

	grievance, err := svc.Submit(context.Background(), models.CreateGrievanceRequest{
		Subject:     "Hostel water supply",
		Description: "No water on the third floor",
		Category:    "FACILITIES",
		Priority:    "HIGH",
		IsAnonymous: true,
	}, Viewer{UserID: "u1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, models.GrievanceStatusSubmitted, grievance.Status)
	require.NotNil(t, grievance.SubmittedBy)
	assert.Equal(t, "u1", *grievance.SubmittedBy)
	assert.True(t, grievance.IsAnonymous)
}

func TestGrievanceServiceSubmitRejectsBadPriority(t *testing.T) {
	svc := newGrievanceService(newGrievanceStore(), newUserStore(), nil)

	_, err := svc.Submit(context.Background(), models.CreateGrievanceRequest{
		Subject:     "x",
		Description: "y",
		Category:    "OTHER",
		Priority:    "WHENEVER",
	}, Viewer{UserID: "u1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGrievanceServiceAnonymityHidesSubmitter(t *testing.T) {
	store := newGrievanceStore(anonymousGrievance("grv-1", "u1"))
	svc := newGrievanceService(store, newUserStore(), nil)

	// Ordinary viewers never learn who filed it.
	grievance, err := svc.Get(context.Background(), "grv-1", Viewer{UserID: "u2", Role: models.RoleFaculty})
	require.NoError(t, err)
	assert.Nil(t, grievance.SubmittedBy)

	// The submitter, admins and committee members still see it.
	for _, viewer := range []Viewer{
		{UserID: "u1", Role: models.RoleStudent},
		{UserID: "u9", Role: models.RoleAdmin},
		{UserID: "u9", Role: models.RoleGrievanceCommittee},
	} {
		grievance, err = svc.Get(context.Background(), "grv-1", viewer)
		require.NoError(t, err)
		require.NotNil(t, grievance.SubmittedBy)
		assert.Equal(t, "u1", *grievance.SubmittedBy)
	}
}

func TestGrievanceServiceUpdateOwnerOnlyWhileSubmitted(t *testing.T) {
	store := newGrievanceStore(anonymousGrievance("grv-1", "u1"))
	svc := newGrievanceService(store, newUserStore(), nil)

	subject := "Updated subject"
	_, err := svc.Update(context.Background(), "grv-1", models.UpdateGrievanceRequest{Subject: &subject}, Viewer{UserID: "u2", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	grievance, err := svc.Update(context.Background(), "grv-1", models.UpdateGrievanceRequest{Subject: &subject}, Viewer{UserID: "u1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, subject, grievance.Subject)

	store.items["grv-1"].Status = models.GrievanceStatusUnderReview
	_, err = svc.Update(context.Background(), "grv-1", models.UpdateGrievanceRequest{Subject: &subject}, Viewer{UserID: "u1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGrievanceServiceDeleteOnlyWhileSubmitted(t *testing.T) {
	grievance := anonymousGrievance("grv-1", "u1")
	grievance.Status = models.GrievanceStatusInProgress
	store := newGrievanceStore(grievance)
	svc := newGrievanceService(store, newUserStore(), nil)

	err := svc.Delete(context.Background(), "grv-1", Viewer{UserID: "u1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	store.items["grv-1"].Status = models.GrievanceStatusSubmitted
	require.NoError(t, svc.Delete(context.Background(), "grv-1", Viewer{UserID: "u1", Role: models.RoleStudent}))
	assert.Empty(t, store.items)
}

func TestGrievanceServiceAssignRequiresCommitteeMember(t *testing.T) {
	store := newGrievanceStore(anonymousGrievance("grv-1", "u1"))
	users := newUserStore(
		&models.User{ID: "member-1", Role: models.RoleGrievanceCommittee},
		&models.User{ID: "random-1", Role: models.RoleStudent},
	)
	svc := newGrievanceService(store, users, nil)

	_, err := svc.Assign(context.Background(), "grv-1", models.AssignGrievanceRequest{AssignedTo: "random-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Assign(context.Background(), "grv-1", models.AssignGrievanceRequest{AssignedTo: "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	grievance, err := svc.Assign(context.Background(), "grv-1", models.AssignGrievanceRequest{AssignedTo: "member-1"})
	require.NoError(t, err)
	require.NotNil(t, grievance.AssignedTo)
	assert.Equal(t, "member-1", *grievance.AssignedTo)
}

func TestGrievanceServiceStatusFollowsLifecycle(t *testing.T) {
	store := newGrievanceStore(anonymousGrievance("grv-1", "u1"))
	svc := newGrievanceService(store, newUserStore(&models.User{ID: "u1", Email: "u1@example.com"}), nil)

	// SUBMITTED cannot jump straight to IN_PROGRESS.
	_, err := svc.UpdateStatus(context.Background(), "grv-1", models.UpdateGrievanceStatusRequest{Status: models.GrievanceStatusInProgress})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	grievance, err := svc.UpdateStatus(context.Background(), "grv-1", models.UpdateGrievanceStatusRequest{Status: models.GrievanceStatusUnderReview})
	require.NoError(t, err)
	assert.Equal(t, models.GrievanceStatusUnderReview, grievance.Status)
}

func TestGrievanceServiceResolveRequiresResolution(t *testing.T) {
	grievance := anonymousGrievance("grv-1", "u1")
	grievance.Status = models.GrievanceStatusInProgress
	store := newGrievanceStore(grievance)
	notifier := &recordingNotifier{}
	svc := newGrievanceService(store, newUserStore(&models.User{ID: "u1", Email: "u1@example.com"}), notifier)

	_, err := svc.UpdateStatus(context.Background(), "grv-1", models.UpdateGrievanceStatusRequest{Status: models.GrievanceStatusResolved})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	resolution := "Equipment replaced"
	resolved, err := svc.UpdateStatus(context.Background(), "grv-1", models.UpdateGrievanceStatusRequest{
		Status:     models.GrievanceStatusResolved,
		Resolution: &resolution,
	})
	require.NoError(t, err)
	assert.Equal(t, models.GrievanceStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Resolution)
	assert.NotNil(t, resolved.ResolvedAt)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, mailer.EventGrievanceUpdate, notifier.events[0])
	assert.Equal(t, "u1@example.com", notifier.recipients[0])
}

func TestGrievanceServiceAttachFiles(t *testing.T) {
	store := newGrievanceStore(anonymousGrievance("grv-1", "u1"))
	disk := newMemStore()
	svc := NewGrievanceService(store, newUserStore(), newTestAttachments(disk), nil, nil, nil)

	_, err := svc.AttachFiles(context.Background(), "grv-1", uploads("photo.jpg"), Viewer{UserID: "u2", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	grievance, err := svc.AttachFiles(context.Background(), "grv-1", uploads("photo.jpg"), Viewer{UserID: "u1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, grievance.Attachments, 1)
	require.Len(t, grievance.AttachmentLinks, 1)
	assert.Len(t, disk.saved, 1)
}

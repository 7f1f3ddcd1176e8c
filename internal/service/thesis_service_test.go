package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/mailer"
)

type thesisStore struct {
	items  map[string]*models.Thesis
	nextID int
}

func newThesisStore(theses ...*models.Thesis) *thesisStore {
	s := &thesisStore{items: make(map[string]*models.Thesis)}
	for _, th := range theses {
		s.items[th.ID] = th
	}
	return s
}

func (s *thesisStore) List(ctx context.Context, filter models.ThesisFilter) ([]models.Thesis, int, error) {
	var out []models.Thesis
	for _, th := range s.items {
		out = append(out, *th)
	}
	return out, len(out), nil
}

func (s *thesisStore) FindByID(ctx context.Context, id string) (*models.Thesis, error) {
	th, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *th
	return &clone, nil
}

func (s *thesisStore) Create(ctx context.Context, thesis *models.Thesis) error {
	if thesis.ID == "" {
		s.nextID++
		thesis.ID = fmt.Sprintf("th-%d", s.nextID)
	}
	s.items[thesis.ID] = thesis
	return nil
}

func (s *thesisStore) Update(ctx context.Context, thesis *models.Thesis) error {
	if _, ok := s.items[thesis.ID]; !ok {
		return sql.ErrNoRows
	}
	s.items[thesis.ID] = thesis
	return nil
}

func (s *thesisStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func newThesisService(store *thesisStore, students *studentStore, notifier Notifier) *ThesisService {
	return NewThesisService(store, students, newTestAttachments(newMemStore()), notifier, nil, nil)
}

func thesisTestStudent() *models.StudentDetail {
	return &models.StudentDetail{
		Student: models.Student{ID: "stu-1", UserID: "u1", RegistrationNumber: "REG-2026-abc123"},
		Email:   "student@example.com",
	}
}

func TestThesisServiceCreateDraft(t *testing.T) {
	store := newThesisStore()
	svc := newThesisService(store, newStudentStore(thesisTestStudent()), nil)

	thesis, err := svc.Create(context.Background(), "stu-1", models.CreateThesisRequest{
		Title:    "Spin Transport in Graphene",
		Abstract: "We study spin transport...",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ThesisStatusDraft, thesis.Status)
	assert.Equal(t, "stu-1", thesis.StudentID)

	_, err = svc.Create(context.Background(), "ghost", models.CreateThesisRequest{Title: "x", Abstract: "y"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestThesisServiceSubmitStampsTime(t *testing.T) {
	store := newThesisStore(&models.Thesis{ID: "th-1", StudentID: "stu-1", Status: models.ThesisStatusDraft})
	svc := newThesisService(store, newStudentStore(thesisTestStudent()), nil)

	thesis, err := svc.Submit(context.Background(), "th-1")
	require.NoError(t, err)
	assert.Equal(t, models.ThesisStatusSubmitted, thesis.Status)
	assert.NotNil(t, thesis.SubmittedAt)

	// Resubmitting a submitted thesis is not allowed.
	_, err = svc.Submit(context.Background(), "th-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestThesisServiceRevisionLoop(t *testing.T) {
	store := newThesisStore(&models.Thesis{ID: "th-1", StudentID: "stu-1", Status: models.ThesisStatusUnderReview})
	notifier := &recordingNotifier{}
	svc := newThesisService(store, newStudentStore(thesisTestStudent()), notifier)

	// Revision requests need a note.
	_, err := svc.Decide(context.Background(), "th-1", models.ThesisDecisionRequest{Status: models.ThesisStatusRevisionNeeded})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	note := "Expand the methodology chapter"
	thesis, err := svc.Decide(context.Background(), "th-1", models.ThesisDecisionRequest{Status: models.ThesisStatusRevisionNeeded, DecisionNote: &note})
	require.NoError(t, err)
	assert.Equal(t, models.ThesisStatusRevisionNeeded, thesis.Status)
	require.NotNil(t, thesis.DecisionNote)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, mailer.EventThesisDecision, notifier.events[0])
	assert.Equal(t, "student@example.com", notifier.recipients[0])

	// The revised thesis loops back through submission.
	thesis, err = svc.Submit(context.Background(), "th-1")
	require.NoError(t, err)
	assert.Equal(t, models.ThesisStatusSubmitted, thesis.Status)
}

func TestThesisServiceDecisionFollowsAllowList(t *testing.T) {
	store := newThesisStore(&models.Thesis{ID: "th-1", StudentID: "stu-1", Status: models.ThesisStatusApproved})
	svc := newThesisService(store, newStudentStore(thesisTestStudent()), nil)

	// An approved thesis can only be published.
	_, err := svc.Decide(context.Background(), "th-1", models.ThesisDecisionRequest{Status: models.ThesisStatusUnderReview})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	thesis, err := svc.Decide(context.Background(), "th-1", models.ThesisDecisionRequest{Status: models.ThesisStatusPublished})
	require.NoError(t, err)
	assert.Equal(t, models.ThesisStatusPublished, thesis.Status)
}

func TestThesisServiceUpdateOnlyWhileEditable(t *testing.T) {
	store := newThesisStore(&models.Thesis{ID: "th-1", StudentID: "stu-1", Status: models.ThesisStatusSubmitted})
	svc := newThesisService(store, newStudentStore(thesisTestStudent()), nil)

	title := "Updated title"
	_, err := svc.Update(context.Background(), "th-1", models.UpdateThesisRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	store.items["th-1"].Status = models.ThesisStatusRevisionNeeded
	thesis, err := svc.Update(context.Background(), "th-1", models.UpdateThesisRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, thesis.Title)
}

func TestThesisServiceAttachDocuments(t *testing.T) {
	disk := newMemStore()
	store := newThesisStore(
		&models.Thesis{ID: "draft", StudentID: "stu-1", Status: models.ThesisStatusDraft},
		&models.Thesis{ID: "published", StudentID: "stu-1", Status: models.ThesisStatusPublished},
	)
	svc := NewThesisService(store, newStudentStore(thesisTestStudent()), newTestAttachments(disk), nil, nil, nil)

	thesis, err := svc.AttachDocuments(context.Background(), "draft", uploads("chapter1.pdf"))
	require.NoError(t, err)
	require.Len(t, thesis.Documents, 1)
	assert.True(t, strings.HasPrefix(thesis.Documents[0], "thesis/draft/"))

	_, err = svc.AttachDocuments(context.Background(), "published", uploads("chapter1.pdf"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, disk.saved, 1)
}

func TestThesisServiceDeleteOnlyDrafts(t *testing.T) {
	store := newThesisStore(
		&models.Thesis{ID: "draft", StudentID: "stu-1", Status: models.ThesisStatusDraft},
		&models.Thesis{ID: "submitted", StudentID: "stu-1", Status: models.ThesisStatusSubmitted},
	)
	svc := newThesisService(store, newStudentStore(thesisTestStudent()), nil)

	err := svc.Delete(context.Background(), "submitted")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "draft"))
	assert.NotContains(t, store.items, "draft")
}

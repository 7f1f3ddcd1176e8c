package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
)

type examStore struct {
	items     map[string]*models.Exam
	listCalls int
	nextID    int
}

func newExamStore(exams ...*models.Exam) *examStore {
	s := &examStore{items: make(map[string]*models.Exam)}
	for _, e := range exams {
		s.items[e.ID] = e
	}
	return s
}

func (s *examStore) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	s.listCalls++
	var out []models.Exam
	for _, e := range s.items {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (s *examStore) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	e, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (s *examStore) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		s.nextID++
		exam.ID = fmt.Sprintf("exam-%d", s.nextID)
	}
	s.items[exam.ID] = exam
	return nil
}

func (s *examStore) Update(ctx context.Context, exam *models.Exam) error {
	if _, ok := s.items[exam.ID]; !ok {
		return sql.ErrNoRows
	}
	s.items[exam.ID] = exam
	return nil
}

func (s *examStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

// cacheRepoStub is an in-memory CacheRepository with JSON round-tripping.
type cacheRepoStub struct {
	entries  map[string][]byte
	patterns []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: make(map[string][]byte)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func validExamRequest() models.CreateExamRequest {
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	return models.CreateExamRequest{
		Title:        "Midterm",
		CourseCode:   "CS101",
		Type:         "MIDTERM",
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		Venue:        "Hall A",
		TotalMarks:   100,
		PassingMarks: 40,
		FacultyID:    "fac-1",
	}
}

func TestExamServiceCreateSchedules(t *testing.T) {
	store := newExamStore()
	svc := NewExamService(store, newTestAttachments(newMemStore()), nil, nil, nil)

	exam, err := svc.Create(context.Background(), validExamRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusScheduled, exam.Status)
	assert.NotEmpty(t, exam.ID)
	assert.Len(t, store.items, 1)
}

func TestExamServiceCreateRejectsBadTimesAndMarks(t *testing.T) {
	svc := NewExamService(newExamStore(), newTestAttachments(newMemStore()), nil, nil, nil)

	req := validExamRequest()
	req.EndTime = req.StartTime.Add(-time.Hour)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validExamRequest()
	req.PassingMarks = 150
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExamServiceStatusTransitions(t *testing.T) {
	cases := []struct {
		from    models.ExamStatus
		to      models.ExamStatus
		allowed bool
	}{
		{models.ExamStatusScheduled, models.ExamStatusOngoing, true},
		{models.ExamStatusScheduled, models.ExamStatusPostponed, true},
		{models.ExamStatusScheduled, models.ExamStatusCompleted, false},
		{models.ExamStatusPostponed, models.ExamStatusScheduled, true},
		{models.ExamStatusOngoing, models.ExamStatusCompleted, true},
		{models.ExamStatusCompleted, models.ExamStatusCancelled, false},
		{models.ExamStatusCancelled, models.ExamStatusScheduled, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_to_%s", tc.from, tc.to), func(t *testing.T) {
			store := newExamStore(&models.Exam{ID: "exam-1", Status: tc.from})
			svc := NewExamService(store, newTestAttachments(newMemStore()), nil, nil, nil)

			exam, err := svc.UpdateStatus(context.Background(), "exam-1", models.UpdateExamStatusRequest{Status: tc.to})
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, exam.Status)
				return
			}
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestExamServiceUpdateFrozenWhenCompleted(t *testing.T) {
	store := newExamStore(&models.Exam{ID: "exam-1", Status: models.ExamStatusCompleted})
	svc := NewExamService(store, newTestAttachments(newMemStore()), nil, nil, nil)

	title := "Renamed"
	_, err := svc.Update(context.Background(), "exam-1", models.UpdateExamRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestExamServiceAttachMaterials(t *testing.T) {
	disk := newMemStore()
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	store := newExamStore(&models.Exam{ID: "exam-1", Status: models.ExamStatusScheduled, StartTime: start, EndTime: start.Add(time.Hour)})
	svc := NewExamService(store, newTestAttachments(disk), nil, nil, nil)

	exam, err := svc.AttachMaterials(context.Background(), "exam-1", uploads("syllabus.pdf", "rules.pdf"))
	require.NoError(t, err)
	require.Len(t, exam.Materials, 2)
	assert.True(t, strings.HasPrefix(exam.Materials[0], "exams/exam-1/"))
	assert.Len(t, disk.saved, 2)

	require.Len(t, exam.MaterialLinks, 2)
	assert.True(t, strings.HasPrefix(exam.MaterialLinks[0].URL, "/api/v1/files/tok-"))

	// Keys survive on the stored row too.
	stored, err := svc.Get(context.Background(), "exam-1")
	require.NoError(t, err)
	assert.Len(t, stored.Materials, 2)
}

func TestExamServiceAttachMaterialsMissingExam(t *testing.T) {
	disk := newMemStore()
	svc := NewExamService(newExamStore(), newTestAttachments(disk), nil, nil, nil)

	_, err := svc.AttachMaterials(context.Background(), "nope", uploads("syllabus.pdf"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, disk.saved)
}

func TestExamServiceAttachMaterialsRollsBackOnFailure(t *testing.T) {
	disk := newMemStore()
	disk.failOn = "broken"
	store := newExamStore(&models.Exam{ID: "exam-1", Status: models.ExamStatusScheduled})
	svc := NewExamService(store, newTestAttachments(disk), nil, nil, nil)

	_, err := svc.AttachMaterials(context.Background(), "exam-1", uploads("ok.pdf", "broken.pdf"))
	require.Error(t, err)
	assert.Empty(t, disk.saved)
	assert.Len(t, disk.deleted, 1)
}

func TestExamServiceDeleteOnlyExamsThatNeverRan(t *testing.T) {
	store := newExamStore(
		&models.Exam{ID: "scheduled", Status: models.ExamStatusScheduled},
		&models.Exam{ID: "ongoing", Status: models.ExamStatusOngoing},
	)
	svc := NewExamService(store, newTestAttachments(newMemStore()), nil, nil, nil)

	err := svc.Delete(context.Background(), "ongoing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "scheduled"))
	assert.NotContains(t, store.items, "scheduled")
}

func TestExamServiceListServesFromCache(t *testing.T) {
	cacheRepo := newCacheRepoStub()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	store := newExamStore(&models.Exam{ID: "exam-1", Status: models.ExamStatusScheduled, Materials: models.JSONStrings{"exams/exam-1/a.pdf"}})
	svc := NewExamService(store, newTestAttachments(newMemStore()), cacheSvc, nil, nil)

	exams, _, err := svc.List(context.Background(), models.ExamFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, 1, store.listCalls)

	// Second read comes from the cache, with links re-minted.
	exams, _, err = svc.List(context.Background(), models.ExamFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, exams, 1)
	assert.Equal(t, 1, store.listCalls)
	require.Len(t, exams[0].MaterialLinks, 1)
	assert.True(t, strings.HasPrefix(exams[0].MaterialLinks[0].URL, "/api/v1/files/tok-"))
}

func TestExamServiceWritesInvalidateListCache(t *testing.T) {
	cacheRepo := newCacheRepoStub()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	store := newExamStore()
	svc := NewExamService(store, newTestAttachments(newMemStore()), cacheSvc, nil, nil)

	_, _, err := svc.List(context.Background(), models.ExamFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, cacheRepo.entries, 1)

	_, err = svc.Create(context.Background(), validExamRequest())
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.patterns, "exams:list:*")
	assert.Empty(t, cacheRepo.entries)
}

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/middleware"
	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/internal/service"
	"github.com/campushq/records-api/pkg/config"
	"github.com/campushq/records-api/pkg/response"
)

type leaveRepoStub struct {
	items  map[string]*models.Leave
	nextID int
}

func newLeaveRepoStub(leaves ...*models.Leave) *leaveRepoStub {
	s := &leaveRepoStub{items: make(map[string]*models.Leave)}
	for _, l := range leaves {
		s.items[l.ID] = l
	}
	return s
}

func (s *leaveRepoStub) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	var out []models.Leave
	for _, l := range s.items {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (s *leaveRepoStub) FindByID(ctx context.Context, id string) (*models.Leave, error) {
	l, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *l
	return &clone, nil
}

func (s *leaveRepoStub) FindOverlapping(ctx context.Context, userID string, start, end time.Time) ([]models.Leave, error) {
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

func (s *leaveRepoStub) Create(ctx context.Context, leave *models.Leave) error {
	if leave.ID == "" {
		s.nextID++
		leave.ID = fmt.Sprintf("lv-%d", s.nextID)
	}
	s.items[leave.ID] = leave
	return nil
}

func (s *leaveRepoStub) Update(ctx context.Context, leave *models.Leave) error {
	if _, ok := s.items[leave.ID]; !ok {
		return sql.ErrNoRows
	}
	s.items[leave.ID] = leave
	return nil
}

type userRepoStub struct {
	users map[string]*models.User
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type fileStoreStub struct {
	saved map[string][]byte
}

func (s *fileStoreStub) SaveStream(key string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	s.saved[key] = buf.Bytes()
	return key, nil
}

func (s *fileStoreStub) Delete(key string) error {
	delete(s.saved, key)
	return nil
}

type tokenSignerStub struct{}

func (tokenSignerStub) Generate(key string) (string, time.Time, error) {
	return "tok-" + key, time.Now().UTC().Add(15 * time.Minute), nil
}

func leaveTestRouter(repo *leaveRepoStub, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	attachments := service.NewAttachmentManager(&fileStoreStub{saved: make(map[string][]byte)}, tokenSignerStub{}, "/api/v1/files")
	users := &userRepoStub{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "u1@example.com"},
		"u2": {ID: "u2", Email: "u2@example.com"},
	}}
	svc := service.NewLeaveService(repo, users, attachments, nil, nil, nil)
	h := NewLeaveHandler(svc, config.StorageConfig{})

	router := gin.New()
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserKey, claims)
		})
	}
	router.GET("/leaves", h.List)
	router.POST("/leaves", h.Apply)
	router.POST("/leaves/:id/approve", h.Approve)
	return router
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func pendingLeave(id, userID string, start time.Time) *models.Leave {
	return &models.Leave{
		ID:        id,
		UserID:    userID,
		Type:      "CASUAL",
		StartDate: start,
		EndDate:   start.Add(48 * time.Hour),
		Reason:    "family visit",
		Status:    models.LeaveStatusPending,
	}
}

func TestLeaveHandlerListScopesApplicants(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	repo := newLeaveRepoStub(
		pendingLeave("lv-1", "u1", start),
		pendingLeave("lv-2", "u2", start),
	)
	router := leaveTestRouter(repo, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	// The userId filter is overridden for non-privileged callers.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/leaves?userId=u2", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	leaves, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, leaves, 1)
	leave := leaves[0].(map[string]interface{})
	assert.Equal(t, "u1", leave["user_id"])
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestLeaveHandlerListAdminFiltersByApplicant(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	repo := newLeaveRepoStub(
		pendingLeave("lv-1", "u1", start),
		pendingLeave("lv-2", "u2", start),
	)
	router := leaveTestRouter(repo, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/leaves?userId=u2", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	leaves := envelope.Data.([]interface{})
	require.Len(t, leaves, 1)
	assert.Equal(t, "u2", leaves[0].(map[string]interface{})["user_id"])
}

func TestLeaveHandlerApply(t *testing.T) {
	repo := newLeaveRepoStub()
	router := leaveTestRouter(repo, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	payload := `{"type":"CASUAL","start_date":"2026-10-01T00:00:00Z","end_date":"2026-10-03T00:00:00Z","reason":"family visit"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/leaves", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeEnvelope(t, w)
	leave := envelope.Data.(map[string]interface{})
	assert.Equal(t, string(models.LeaveStatusPending), leave["status"])
	assert.Equal(t, "u1", leave["user_id"])
	assert.Len(t, repo.items, 1)
}

func TestLeaveHandlerApplyRejectsBadPayload(t *testing.T) {
	router := leaveTestRouter(newLeaveRepoStub(), &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/leaves", bytes.NewBufferString(`{"type":`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestLeaveHandlerApplyRejectsOverlap(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	repo := newLeaveRepoStub(pendingLeave("lv-1", "u1", start))
	router := leaveTestRouter(repo, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	payload := `{"type":"CASUAL","start_date":"2026-10-02T00:00:00Z","end_date":"2026-10-04T00:00:00Z","reason":"family visit"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/leaves", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
}

func TestLeaveHandlerRequiresAuthentication(t *testing.T) {
	router := leaveTestRouter(newLeaveRepoStub(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/leaves", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

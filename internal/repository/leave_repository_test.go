package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/models"
)

func newLeaveRepoMock(t *testing.T) (*LeaveRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := NewLeaveRepository(sqlx.NewDb(db, "postgres"))
	return repo, mock, func() { db.Close() }
}

func leaveRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "type", "start_date", "end_date", "reason", "status",
		"approved_by", "approved_at", "rejection_reason", "attachments", "created_at", "updated_at",
	})
	now := time.Now().UTC()
	for _, id := range ids {
		rows.AddRow(id, "u1", "CASUAL", now, now.Add(48*time.Hour), "family visit",
			models.LeaveStatusPending, nil, nil, nil, []byte(`["leaves/lv-1/note.pdf"]`), now, now)
	}
	return rows
}

func TestLeaveRepositoryListDefaults(t *testing.T) {
	repo, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + leaveColumns + " FROM leaves WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(leaveRows("lv-1", "lv-2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leaves WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	leaves, total, err := repo.List(context.Background(), models.LeaveFilter{})
	require.NoError(t, err)
	assert.Len(t, leaves, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, models.JSONStrings{"leaves/lv-1/note.pdf"}, leaves[0].Attachments)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryListFilters(t *testing.T) {
	repo, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()

	status := models.LeaveStatusApproved
	mock.ExpectQuery(regexp.QuoteMeta("FROM leaves WHERE 1=1 AND user_id = $1 AND status = $2 ORDER BY start_date ASC")).
		WithArgs("u1", status).
		WillReturnRows(leaveRows("lv-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leaves WHERE 1=1 AND user_id = $1 AND status = $2")).
		WithArgs("u1", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	leaves, total, err := repo.List(context.Background(), models.LeaveFilter{
		UserID:    "u1",
		Status:    &status,
		SortBy:    "start_date",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Len(t, leaves, 1)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryFindOverlapping(t *testing.T) {
	repo, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("user_id = $1 AND start_date < $3 AND end_date > $2 AND status IN ('PENDING', 'APPROVED')")).
		WithArgs("u1", start, end).
		WillReturnRows(leaveRows("lv-1"))

	leaves, err := repo.FindOverlapping(context.Background(), "u1", start, end)
	require.NoError(t, err)
	assert.Len(t, leaves, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO leaves")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	leave := &models.Leave{
		UserID:    "u1",
		Type:      "MEDICAL",
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
		Reason:    "surgery recovery",
		Status:    models.LeaveStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), leave))
	assert.NotEmpty(t, leave.ID)
	assert.False(t, leave.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryUpdate(t *testing.T) {
	repo, mock, cleanup := newLeaveRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE leaves SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	leave := &models.Leave{
		ID:     "lv-1",
		UserID: "u1",
		Type:   "CASUAL",
		Status: models.LeaveStatusApproved,
	}
	before := leave.UpdatedAt
	require.NoError(t, repo.Update(context.Background(), leave))
	assert.True(t, leave.UpdatedAt.After(before))
	require.NoError(t, mock.ExpectationsWereMet())
}

package postgres

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestRecordRun(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRunRepository(db)

	sessionID := uuid.New()
	run := &models.AnalysisRun{
		SessionID:     sessionID,
		Seq:           3,
		Kind:          models.AnalysisKindContiguity,
		Status:        models.RunStatusApplied,
		Discontiguous: []int{0, 4},
		Duration:      250 * time.Millisecond,
		CreatedAt:     time.Now(),
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO analysis_runs")).
		WithArgs(sessionID, int64(3), "contiguity", "applied", "", sqlmock.AnyArg(), int64(250), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	require.NoError(t, repo.RecordRun(context.Background(), run))
	assert.Equal(t, int64(42), run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRunDatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRunRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO analysis_runs")).
		WillReturnError(fmt.Errorf("connection reset"))

	err := repo.RecordRun(context.Background(), &models.AnalysisRun{
		SessionID: uuid.New(),
		Seq:       1,
		Kind:      models.AnalysisKindUnassigned,
		Status:    models.RunStatusFailed,
		ErrorCode: errors.CodeNetworkError,
	})
	assert.True(t, errors.HasCode(err, errors.CodeDatabaseError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRuns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRunRepository(db)

	sessionID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "session_id", "seq", "kind", "status", "error_code", "discontiguous", "duration_ms", "created_at",
	}).
		AddRow(7, sessionID.String(), 2, "contiguity", "applied", "", "{1,3}", 120, now).
		AddRow(6, sessionID.String(), 1, "contiguity", "stale", "", "{}", 300, now.Add(-time.Second))

	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_runs")).
		WithArgs(sessionID, 50).
		WillReturnRows(rows)

	runs, err := repo.ListRuns(context.Background(), sessionID, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, int64(7), runs[0].ID)
	assert.Equal(t, sessionID, runs[0].SessionID)
	assert.Equal(t, uint64(2), runs[0].Seq)
	assert.Equal(t, models.RunStatusApplied, runs[0].Status)
	assert.Equal(t, []int{1, 3}, runs[0].Discontiguous)
	assert.Equal(t, 120*time.Millisecond, runs[0].Duration)

	assert.Equal(t, models.RunStatusStale, runs[1].Status)
	assert.Empty(t, runs[1].Discontiguous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package postgres

import (
	"context"
	"time"

	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/models"
	"github.com/gomotopia/districtr/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// AnalysisRunRepositoryImpl implements AnalysisRunRepository for PostgreSQL
type AnalysisRunRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRunRepository creates a new PostgreSQL analysis run repository
func NewAnalysisRunRepository(db *sqlx.DB) ports.AnalysisRunRepository {
	return &AnalysisRunRepositoryImpl{db: db}
}

type analysisRunRow struct {
	ID            int64         `db:"id"`
	SessionID     uuid.UUID     `db:"session_id"`
	Seq           int64         `db:"seq"`
	Kind          string        `db:"kind"`
	Status        string        `db:"status"`
	ErrorCode     string        `db:"error_code"`
	Discontiguous pq.Int64Array `db:"discontiguous"`
	DurationMS    int64         `db:"duration_ms"`
	CreatedAt     time.Time     `db:"created_at"`
}

// RecordRun appends one request outcome
func (r *AnalysisRunRepositoryImpl) RecordRun(ctx context.Context, run *models.AnalysisRun) error {
	discontiguous := make(pq.Int64Array, len(run.Discontiguous))
	for i, d := range run.Discontiguous {
		discontiguous[i] = int64(d)
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO analysis_runs (
			session_id, seq, kind, status, error_code, discontiguous, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, run.SessionID, int64(run.Seq), string(run.Kind), string(run.Status), run.ErrorCode,
		discontiguous, run.Duration.Milliseconds(), createdAt).Scan(&run.ID)
	if err != nil {
		return errors.DatabaseError("failed to record analysis run", err)
	}
	return nil
}

// ListRuns returns the most recent runs of a session, newest first
func (r *AnalysisRunRepositoryImpl) ListRuns(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []analysisRunRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, session_id, seq, kind, status, error_code, discontiguous, duration_ms, created_at
		FROM analysis_runs
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list analysis runs", err)
	}

	runs := make([]*models.AnalysisRun, len(rows))
	for i, row := range rows {
		run := &models.AnalysisRun{
			ID:        row.ID,
			SessionID: row.SessionID,
			Seq:       uint64(row.Seq),
			Kind:      models.AnalysisKind(row.Kind),
			Status:    models.RunStatus(row.Status),
			ErrorCode: row.ErrorCode,
			Duration:  time.Duration(row.DurationMS) * time.Millisecond,
			CreatedAt: row.CreatedAt,
		}
		for _, d := range row.Discontiguous {
			run.Discontiguous = append(run.Discontiguous, int(d))
		}
		runs[i] = run
	}
	return runs, nil
}

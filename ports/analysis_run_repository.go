package ports

import (
	"context"

	"github.com/gomotopia/districtr/models"

	"github.com/google/uuid"
)

// AnalysisRunRepository defines the interface for the analysis run ledger
type AnalysisRunRepository interface {
	// RecordRun appends one request outcome
	RecordRun(ctx context.Context, run *models.AnalysisRun) error

	// ListRuns returns the most recent runs of a session, newest first
	ListRuns(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.AnalysisRun, error)
}

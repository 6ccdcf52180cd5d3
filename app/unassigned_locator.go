package app

import (
	"context"
	"sync"
	"time"

	"github.com/gomotopia/districtr/domain/unassigned"
	"github.com/gomotopia/districtr/internal"
	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/models"
	"github.com/gomotopia/districtr/ports"

	"github.com/google/uuid"
)

// LocatorConfig describes where the zoom-to-unassigned flow looks things up
type LocatorConfig struct {
	SessionID uuid.UUID
	// LookupID is the place id understood by the bounding box service.
	LookupID  string
	Separator string
	// Enabled mirrors the place's find_unpainted capability.
	Enabled bool
}

// UnassignedLocator zooms the map to the largest region of unassigned units
type UnassignedLocator struct {
	cfg      LocatorConfig
	analyzer ports.UnassignedAnalyzer
	bbox     ports.BBoxLookup
	viewport ports.Viewport
	runs     ports.AnalysisRunRepository
	logger   *internal.Logger

	mu      sync.Mutex
	nextSeq uint64
	// settledSeq is the latest attempt that ended in a fit, an empty result
	// or a failure. Older attempts finishing later are stale.
	settledSeq uint64
	lastErr    error
	lastBounds *unassigned.Bounds
}

// NewUnassignedLocator creates a locator. runs may be nil.
func NewUnassignedLocator(
	cfg LocatorConfig,
	analyzer ports.UnassignedAnalyzer,
	bbox ports.BBoxLookup,
	viewport ports.Viewport,
	runs ports.AnalysisRunRepository,
	logger *internal.Logger,
) *UnassignedLocator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &UnassignedLocator{
		cfg:      cfg,
		analyzer: analyzer,
		bbox:     bbox,
		viewport: viewport,
		runs:     runs,
		logger:   logger.With("Unassigned " + cfg.SessionID.String()[:8]),
	}
}

// Enabled reports whether the place offers zoom-to-unassigned
func (l *UnassignedLocator) Enabled() bool {
	return l.cfg.Enabled && l.analyzer != nil && l.bbox != nil
}

// Locate asks for the unassigned islands of the plan, looks up the bounding
// box of the largest one and fits the viewport to it. It returns the bounds
// it fitted; ok is false when nothing was fitted. Failures are kept for
// LastError rather than returned.
func (l *UnassignedLocator) Locate(ctx context.Context, plan ports.Plan) (bounds unassigned.Bounds, ok bool) {
	if !l.Enabled() {
		return bounds, false
	}

	l.mu.Lock()
	l.nextSeq++
	seq := l.nextSeq
	l.mu.Unlock()

	run := &models.AnalysisRun{
		SessionID: l.cfg.SessionID,
		Seq:       seq,
		Kind:      models.AnalysisKindUnassigned,
	}
	start := time.Now()
	defer func() {
		run.Duration = time.Since(start)
		run.CreatedAt = time.Now()
		l.record(ctx, run)
	}()

	report, err := l.analyzer.RequestUnassigned(ctx, plan)
	if err != nil {
		l.fail(run, err)
		return bounds, false
	}

	ids := unassigned.LookupIDs(report)
	if len(ids) == 0 {
		if l.settle(run, nil) {
			l.logger.Info("No unassigned units to zoom to")
			run.Status = models.RunStatusEmpty
		}
		return bounds, false
	}

	box, found, err := l.bbox.RequestBBox(ctx, l.cfg.LookupID, ids, l.cfg.Separator)
	if err != nil {
		l.fail(run, err)
		return bounds, false
	}
	if !found {
		if l.settle(run, nil) {
			run.Status = models.RunStatusEmpty
		}
		return bounds, false
	}

	bounds = unassigned.FitBounds(box)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.settleLocked(run, nil) {
		return bounds, false
	}
	l.lastBounds = &bounds
	l.viewport.FitBounds(bounds)
	run.Status = models.RunStatusApplied
	l.logger.Info("Zoomed to %d unassigned units", len(ids))
	return bounds, true
}

func (l *UnassignedLocator) fail(run *models.AnalysisRun, err error) {
	run.ErrorCode = errors.GetCode(err)
	if l.settle(run, err) {
		run.Status = models.RunStatusFailed
		l.logger.Error("Locate #%d failed: %v", run.Seq, err)
	}
}

func (l *UnassignedLocator) settle(run *models.AnalysisRun, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settleLocked(run, err)
}

// settleLocked makes run the latest settled attempt and keeps its error.
// It returns false, marking run stale, when a later attempt has settled
// already. Caller holds mu.
func (l *UnassignedLocator) settleLocked(run *models.AnalysisRun, err error) bool {
	if run.Seq < l.settledSeq {
		run.Status = models.RunStatusStale
		l.logger.Debug("Discarding locate #%d, #%d already settled", run.Seq, l.settledSeq)
		return false
	}
	l.settledSeq = run.Seq
	l.lastErr = err
	return true
}

// LastError returns the failure of the latest attempt, if any
func (l *UnassignedLocator) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// LastBounds returns the most recently fitted bounds
func (l *UnassignedLocator) LastBounds() (unassigned.Bounds, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastBounds == nil {
		return unassigned.Bounds{}, false
	}
	return *l.lastBounds, true
}

func (l *UnassignedLocator) record(ctx context.Context, run *models.AnalysisRun) {
	if l.runs == nil {
		return
	}
	if err := l.runs.RecordRun(ctx, run); err != nil {
		l.logger.Warn("Failed to record locate run #%d: %v", run.Seq, err)
	}
}

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/paint"
	"github.com/gomotopia/districtr/internal"
	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/models"
	"github.com/gomotopia/districtr/ports"

	"github.com/google/uuid"
)

// HighlightConfig describes the session a HighlightController serves
type HighlightConfig struct {
	SessionID uuid.UUID
	Parts     []contiguity.Part
	// Version is the place's contiguity check version; 0 disables analysis.
	Version int
	// IDKey is the unit property matched by the island highlight expression.
	IDKey string
}

// HighlightController owns the contiguity analysis of a session and the
// mutually exclusive border highlight toggles: one per discontiguous
// district plus "highlight unassigned units".
//
// Analysis requests may overlap. Each gets a sequence number and a response
// counts only if no later request has settled already, by applying or by
// failing.
type HighlightController struct {
	cfg      HighlightConfig
	analyzer ports.ContiguityAnalyzer
	sink     ports.PaintSink
	listener ports.StatusListener
	runs     ports.AnalysisRunRepository
	logger   *internal.Logger

	mu           sync.Mutex
	nextSeq      uint64
	appliedSeq   uint64
	settledSeq   uint64
	inFlight     int
	state        models.AnalysisState
	lastErr      error
	analysis     contiguity.Analysis
	islands      map[int]bool
	unassignedOn bool
	updatedAt    time.Time
}

// HighlightSnapshot is a copy of the controller state for rendering
type HighlightSnapshot struct {
	Seq                 uint64               `json:"seq"`
	State               models.AnalysisState `json:"state"`
	InFlight            int                  `json:"in_flight"`
	Status              contiguity.Status    `json:"-"`
	Header              string               `json:"header"`
	Discontiguous       []int                `json:"discontiguous"`
	Registry            contiguity.Registry  `json:"registry"`
	CheckedIslands      []int                `json:"checked_islands"`
	UnassignedHighlight bool                 `json:"unassigned_highlight"`
	LastErrorCode       string               `json:"last_error_code,omitempty"`
	LastError           string               `json:"last_error,omitempty"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// NewHighlightController creates a controller. listener and runs may be nil.
func NewHighlightController(
	cfg HighlightConfig,
	analyzer ports.ContiguityAnalyzer,
	sink ports.PaintSink,
	listener ports.StatusListener,
	runs ports.AnalysisRunRepository,
	logger *internal.Logger,
) *HighlightController {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &HighlightController{
		cfg:      cfg,
		analyzer: analyzer,
		sink:     sink,
		listener: listener,
		runs:     runs,
		logger:   logger.With("Contiguity " + cfg.SessionID.String()[:8]),
		state:    models.AnalysisStateIdle,
		analysis: contiguity.BuildRegistry(nil),
		islands:  make(map[int]bool),
	}
}

// Enabled reports whether the place runs contiguity analysis at all
func (hc *HighlightController) Enabled() bool {
	return hc.cfg.Version != contiguity.VersionDisabled && hc.analyzer != nil
}

// Mount runs the first analysis as soon as the panel exists
func (hc *HighlightController) Mount(ctx context.Context, plan ports.Plan) {
	hc.Refresh(ctx, plan)
}

// Refresh analyzes a settled plan. Failures never reach the caller; they are
// kept in the snapshot and the previous report stays in place.
func (hc *HighlightController) Refresh(ctx context.Context, plan ports.Plan) {
	if !hc.Enabled() {
		return
	}

	hc.mu.Lock()
	hc.nextSeq++
	seq := hc.nextSeq
	hc.inFlight++
	hc.state = models.AnalysisStateAnalyzing
	hc.mu.Unlock()

	start := time.Now()
	report, err := hc.analyzer.RequestContiguity(ctx, plan)

	run := &models.AnalysisRun{
		SessionID: hc.cfg.SessionID,
		Seq:       seq,
		Kind:      models.AnalysisKindContiguity,
		Duration:  time.Since(start),
		CreatedAt: time.Now(),
	}

	hc.mu.Lock()
	hc.inFlight--
	switch {
	case seq < hc.settledSeq:
		run.Status = models.RunStatusStale
		if err != nil {
			run.ErrorCode = errors.GetCode(err)
		}
		hc.logger.Debug("Discarding response #%d, #%d already settled", seq, hc.settledSeq)
		hc.settleState()
	case err != nil:
		run.Status = models.RunStatusFailed
		run.ErrorCode = errors.GetCode(err)
		hc.settledSeq = seq
		hc.lastErr = err
		hc.updatedAt = time.Now()
		hc.settleState()
		hc.logger.Error("Analysis #%d failed: %v", seq, err)
	default:
		hc.apply(seq, report)
		run.Status = models.RunStatusApplied
		run.Discontiguous = hc.analysis.DiscontiguousDistricts()
	}
	hc.mu.Unlock()

	hc.record(ctx, run)
}

// apply replaces the analysis wholesale and resets the island toggles.
// Caller holds mu.
func (hc *HighlightController) apply(seq uint64, report contiguity.Report) {
	hc.analysis = contiguity.BuildRegistry(report)
	hc.appliedSeq = seq
	hc.settledSeq = seq
	hc.islands = make(map[int]bool)
	hc.lastErr = nil
	hc.updatedAt = time.Now()
	hc.settleState()

	status := hc.statusLocked()
	hc.logger.Info("Applied analysis #%d: %s", seq, status.Header)

	if !hc.unassignedOn {
		hc.sink.SetPaintProperties(paint.Compose(hc.analysis.Registry, hc.islands, hc.cfg.IDKey))
	}
	if hc.listener != nil {
		hc.listener.ContiguityChanged(status)
	}
}

// settleState leaves "analyzing" once nothing is in flight. Caller holds mu.
func (hc *HighlightController) settleState() {
	if hc.inFlight > 0 {
		return
	}
	switch {
	case hc.lastErr != nil:
		hc.state = models.AnalysisStateError
	case hc.appliedSeq > 0:
		hc.state = models.AnalysisStateComplete
	default:
		hc.state = models.AnalysisStateIdle
	}
}

// SetIslandHighlight flips the "Highlight islands" box of one district. Any
// change clears the unassigned highlight before the borders are recomposed.
func (hc *HighlightController) SetIslandHighlight(district int, checked bool) error {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if hc.cfg.Version != contiguity.VersionHighlight {
		return errors.FeatureDisabled("island highlighting")
	}
	if !hc.analysis.IsDiscontiguous(district) {
		return errors.InvalidInput(fmt.Sprintf("district %d has no contiguity gaps", district))
	}

	hc.unassignedOn = false
	hc.islands[district] = checked
	hc.sink.SetPaintProperties(paint.Compose(hc.analysis.Registry, hc.islands, hc.cfg.IDKey))
	return nil
}

// SetUnassignedHighlight flips the "Highlight unassigned units" toggle. Any
// change clears every island box first.
func (hc *HighlightController) SetUnassignedHighlight(checked bool) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.islands = make(map[int]bool)
	hc.unassignedOn = checked
	if checked {
		hc.sink.SetPaintProperties(paint.HighlightUnassigned())
	} else {
		hc.sink.SetPaintProperties(paint.DefaultBorders())
	}
}

// UnassignedHighlighted reports the unassigned toggle
func (hc *HighlightController) UnassignedHighlighted() bool {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.unassignedOn
}

// Snapshot copies the current state
func (hc *HighlightController) Snapshot() HighlightSnapshot {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	registry := make(contiguity.Registry, len(hc.analysis.Registry))
	for district, ids := range hc.analysis.Registry {
		if ids == nil {
			registry[district] = nil
			continue
		}
		registry[district] = append([]string{}, ids...)
	}

	var checked []int
	for _, district := range hc.analysis.DiscontiguousDistricts() {
		if hc.islands[district] {
			checked = append(checked, district)
		}
	}

	status := hc.statusLocked()
	snap := HighlightSnapshot{
		Seq:                 hc.appliedSeq,
		State:               hc.state,
		InFlight:            hc.inFlight,
		Status:              status,
		Header:              status.Header,
		Discontiguous:       hc.analysis.DiscontiguousDistricts(),
		Registry:            registry,
		CheckedIslands:      checked,
		UnassignedHighlight: hc.unassignedOn,
		UpdatedAt:           hc.updatedAt,
	}
	if hc.lastErr != nil {
		snap.LastErrorCode = errors.GetCode(hc.lastErr)
		snap.LastError = hc.lastErr.Error()
	}
	return snap
}

func (hc *HighlightController) statusLocked() contiguity.Status {
	return contiguity.Present(hc.analysis, hc.cfg.Parts, hc.cfg.Version, hc.islands)
}

func (hc *HighlightController) record(ctx context.Context, run *models.AnalysisRun) {
	if hc.runs == nil {
		return
	}
	if err := hc.runs.RecordRun(ctx, run); err != nil {
		hc.logger.Warn("Failed to record analysis run #%d: %v", run.Seq, err)
	}
}

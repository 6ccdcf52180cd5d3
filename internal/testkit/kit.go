// Package testkit holds in-memory stand-ins for the analysis service and the
// editor map, shared by the app and ui tests.
package testkit

import (
	"context"
	"sync"

	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/paint"
	"github.com/gomotopia/districtr/domain/unassigned"
	"github.com/gomotopia/districtr/models"
	"github.com/gomotopia/districtr/ports"

	"github.com/google/uuid"
)

// ContiguityResponse is one scripted reply of the contiguity endpoint. When
// Gate is set the call blocks until it is closed.
type ContiguityResponse struct {
	Report contiguity.Report
	Err    error
	Gate   chan struct{}
}

// UnassignedResponse is one scripted reply of the unassigned endpoint
type UnassignedResponse struct {
	Report unassigned.Report
	Err    error
	Gate   chan struct{}
}

// BBoxCall records one bounding box lookup
type BBoxCall struct {
	PlaceID   string
	IDs       []string
	Separator string
}

// ScriptedAnalyzer answers analysis requests from queues. The last queued
// response repeats once the queue runs dry.
type ScriptedAnalyzer struct {
	mu         sync.Mutex
	contiguity []ContiguityResponse
	unassigned []UnassignedResponse

	BBox      [4]float64
	BBoxFound bool
	BBoxErr   error

	contiguityCalls int
	bboxCalls       []BBoxCall

	// Started and UnassignedStarted receive the ordinal of each call once
	// it has taken its scripted response.
	Started           chan int
	UnassignedStarted chan int

	unassignedCalls int
}

// NewScriptedAnalyzer creates an analyzer with empty queues
func NewScriptedAnalyzer() *ScriptedAnalyzer {
	return &ScriptedAnalyzer{Started: make(chan int, 64), UnassignedStarted: make(chan int, 64)}
}

// QueueContiguity appends replies for RequestContiguity
func (a *ScriptedAnalyzer) QueueContiguity(responses ...ContiguityResponse) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contiguity = append(a.contiguity, responses...)
}

// QueueUnassigned appends replies for RequestUnassigned
func (a *ScriptedAnalyzer) QueueUnassigned(responses ...UnassignedResponse) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unassigned = append(a.unassigned, responses...)
}

func (a *ScriptedAnalyzer) RequestContiguity(ctx context.Context, plan ports.Plan) (contiguity.Report, error) {
	a.mu.Lock()
	a.contiguityCalls++
	call := a.contiguityCalls
	var resp ContiguityResponse
	if len(a.contiguity) > 0 {
		resp = a.contiguity[0]
		if len(a.contiguity) > 1 {
			a.contiguity = a.contiguity[1:]
		}
	}
	a.mu.Unlock()

	select {
	case a.Started <- call:
	default:
	}
	if resp.Gate != nil {
		select {
		case <-resp.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp.Report, resp.Err
}

func (a *ScriptedAnalyzer) RequestUnassigned(ctx context.Context, plan ports.Plan) (unassigned.Report, error) {
	a.mu.Lock()
	a.unassignedCalls++
	call := a.unassignedCalls
	var resp UnassignedResponse
	if len(a.unassigned) > 0 {
		resp = a.unassigned[0]
		if len(a.unassigned) > 1 {
			a.unassigned = a.unassigned[1:]
		}
	}
	a.mu.Unlock()

	select {
	case a.UnassignedStarted <- call:
	default:
	}

	if resp.Gate != nil {
		select {
		case <-resp.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp.Report, resp.Err
}

func (a *ScriptedAnalyzer) RequestBBox(ctx context.Context, placeID string, ids []string, sep string) ([4]float64, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bboxCalls = append(a.bboxCalls, BBoxCall{PlaceID: placeID, IDs: append([]string{}, ids...), Separator: sep})
	if a.BBoxErr != nil {
		return [4]float64{}, false, a.BBoxErr
	}
	return a.BBox, a.BBoxFound, nil
}

// ContiguityCalls returns how many contiguity requests were made
func (a *ScriptedAnalyzer) ContiguityCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.contiguityCalls
}

// BBoxCalls returns the bounding box lookups made so far
func (a *ScriptedAnalyzer) BBoxCalls() []BBoxCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]BBoxCall{}, a.bboxCalls...)
}

// RecordingMap remembers everything pushed to the editor map
type RecordingMap struct {
	mu       sync.Mutex
	paints   []paint.Property
	bounds   []unassigned.Bounds
	statuses []contiguity.Status
}

// NewRecordingMap creates an empty recorder
func NewRecordingMap() *RecordingMap {
	return &RecordingMap{}
}

func (m *RecordingMap) SetPaintProperties(p paint.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paints = append(m.paints, p)
}

func (m *RecordingMap) FitBounds(b unassigned.Bounds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bounds = append(m.bounds, b)
}

func (m *RecordingMap) ContiguityChanged(status contiguity.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}

// Paints returns every paint push in order
func (m *RecordingMap) Paints() []paint.Property {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]paint.Property{}, m.paints...)
}

// LastPaint returns the latest paint push, or nil
func (m *RecordingMap) LastPaint() paint.Property {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.paints) == 0 {
		return nil
	}
	return m.paints[len(m.paints)-1]
}

// Bounds returns every viewport fit in order
func (m *RecordingMap) Bounds() []unassigned.Bounds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]unassigned.Bounds{}, m.bounds...)
}

// Statuses returns every status notification in order
func (m *RecordingMap) Statuses() []contiguity.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]contiguity.Status{}, m.statuses...)
}

// RunLog is an in-memory analysis run ledger
type RunLog struct {
	mu   sync.Mutex
	runs []*models.AnalysisRun
	Err  error
}

// NewRunLog creates an empty ledger
func NewRunLog() *RunLog {
	return &RunLog{}
}

func (l *RunLog) RecordRun(ctx context.Context, run *models.AnalysisRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	copied := *run
	l.runs = append(l.runs, &copied)
	return nil
}

func (l *RunLog) ListRuns(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.AnalysisRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.AnalysisRun
	for i := len(l.runs) - 1; i >= 0; i-- {
		if l.runs[i].SessionID != sessionID {
			continue
		}
		out = append(out, l.runs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Runs returns every recorded run in order
func (l *RunLog) Runs() []*models.AnalysisRun {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*models.AnalysisRun{}, l.runs...)
}

// Plan is a fixed serializable plan
type Plan map[string]any

func (p Plan) Serialize() any { return map[string]any(p) }

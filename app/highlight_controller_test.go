package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/paint"
	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/internal/testkit"
	"github.com/gomotopia/districtr/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPlan = testkit.Plan{"assignment": map[string]int{"a": 0}}

func parts(n int) []contiguity.Part {
	out := make([]contiguity.Part, n)
	for i := range out {
		out[i] = contiguity.Part{Index: i}
	}
	return out
}

type controllerFixture struct {
	analyzer *testkit.ScriptedAnalyzer
	mapView  *testkit.RecordingMap
	runs     *testkit.RunLog
	hc       *HighlightController
}

func newControllerFixture(version, nParts int) *controllerFixture {
	f := &controllerFixture{
		analyzer: testkit.NewScriptedAnalyzer(),
		mapView:  testkit.NewRecordingMap(),
		runs:     testkit.NewRunLog(),
	}
	f.hc = NewHighlightController(HighlightConfig{
		SessionID: uuid.New(),
		Parts:     parts(nParts),
		Version:   version,
		IDKey:     "GEOID",
	}, f.analyzer, f.mapView, f.mapView, f.runs, nil)
	return f
}

func scenarioReport() contiguity.Report {
	return contiguity.Report{
		0: {{"a", "b"}, {"c"}},
		1: {{"d", "e", "f"}},
	}
}

func TestRefreshAppliesReport(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 3)
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: scenarioReport()})

	f.hc.Mount(context.Background(), testPlan)

	snap := f.hc.Snapshot()
	assert.Equal(t, models.AnalysisStateComplete, snap.State)
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, "Districts may have contiguity gaps (1)", snap.Header)
	assert.Equal(t, []int{0}, snap.Discontiguous)
	assert.Equal(t, []string{"c"}, snap.Registry[0])
	entry, ok := snap.Registry[1]
	assert.True(t, ok)
	assert.Nil(t, entry)
	assert.Empty(t, snap.LastErrorCode)

	require.Len(t, snap.Status.Rows, 3)
	assert.True(t, snap.Status.Rows[0].Visible)
	assert.False(t, snap.Status.Rows[1].Visible)
	assert.False(t, snap.Status.Rows[2].Visible)

	assert.Equal(t, paint.DefaultBorders(), f.mapView.LastPaint())
	statuses := f.mapView.Statuses()
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].HasGaps)

	runs := f.runs.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusApplied, runs[0].Status)
	assert.Equal(t, models.AnalysisKindContiguity, runs[0].Kind)
	assert.Equal(t, []int{0}, runs[0].Discontiguous)
}

func TestRefreshNoGaps(t *testing.T) {
	f := newControllerFixture(contiguity.VersionStatusOnly, 2)
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: contiguity.Report{
		0: {{"a"}},
		1: {{"b", "c"}},
	}})

	f.hc.Refresh(context.Background(), testPlan)

	snap := f.hc.Snapshot()
	assert.Equal(t, contiguity.HeaderNoGaps, snap.Header)
	assert.Empty(t, snap.Discontiguous)
	for _, row := range snap.Status.Rows {
		assert.False(t, row.Visible)
		assert.False(t, row.HasCheckbox)
	}
}

func TestRefreshDisabledPlace(t *testing.T) {
	f := newControllerFixture(contiguity.VersionDisabled, 2)

	assert.False(t, f.hc.Enabled())
	f.hc.Refresh(context.Background(), testPlan)

	assert.Equal(t, 0, f.analyzer.ContiguityCalls())
	assert.Empty(t, f.mapView.Paints())
	assert.Equal(t, models.AnalysisStateIdle, f.hc.Snapshot().State)
}

func TestRefreshFailureIsSurfaced(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"network", errors.NetworkError("contiguity", fmt.Errorf("connection refused")), errors.CodeNetworkError},
		{"decode", errors.DecodeError("contiguity", fmt.Errorf("unexpected token")), errors.CodeDecodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(contiguity.VersionHighlight, 2)
			f.analyzer.QueueContiguity(
				testkit.ContiguityResponse{Report: scenarioReport()},
				testkit.ContiguityResponse{Err: tt.err},
				testkit.ContiguityResponse{Report: contiguity.Report{}},
			)

			f.hc.Refresh(context.Background(), testPlan)
			paintsBefore := len(f.mapView.Paints())

			f.hc.Refresh(context.Background(), testPlan)

			snap := f.hc.Snapshot()
			assert.Equal(t, models.AnalysisStateError, snap.State)
			assert.Equal(t, tt.code, snap.LastErrorCode)
			assert.NotEmpty(t, snap.LastError)
			// previous report stays in place
			assert.Equal(t, []int{0}, snap.Discontiguous)
			assert.Len(t, f.mapView.Paints(), paintsBefore)

			runs := f.runs.Runs()
			require.Len(t, runs, 2)
			assert.Equal(t, models.RunStatusFailed, runs[1].Status)
			assert.Equal(t, tt.code, runs[1].ErrorCode)

			f.hc.Refresh(context.Background(), testPlan)
			snap = f.hc.Snapshot()
			assert.Equal(t, models.AnalysisStateComplete, snap.State)
			assert.Empty(t, snap.LastErrorCode)
			assert.Equal(t, contiguity.HeaderNoGaps, snap.Header)
		})
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 3)
	gate := make(chan struct{})
	f.analyzer.QueueContiguity(
		testkit.ContiguityResponse{Report: scenarioReport(), Gate: gate},
		testkit.ContiguityResponse{Report: contiguity.Report{2: {{"x", "y"}, {"z"}}}},
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.hc.Refresh(context.Background(), testPlan)
	}()

	select {
	case <-f.analyzer.Started:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never started")
	}
	assert.Equal(t, models.AnalysisStateAnalyzing, f.hc.Snapshot().State)

	f.hc.Refresh(context.Background(), testPlan)
	assert.Equal(t, []int{2}, f.hc.Snapshot().Discontiguous)
	assert.Equal(t, models.AnalysisStateAnalyzing, f.hc.Snapshot().State)

	close(gate)
	wg.Wait()

	snap := f.hc.Snapshot()
	assert.Equal(t, uint64(2), snap.Seq)
	assert.Equal(t, []int{2}, snap.Discontiguous)
	assert.Equal(t, models.AnalysisStateComplete, snap.State)
	assert.Len(t, f.mapView.Statuses(), 1)

	runs := f.runs.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, uint64(2), runs[0].Seq)
	assert.Equal(t, models.RunStatusApplied, runs[0].Status)
	assert.Equal(t, uint64(1), runs[1].Seq)
	assert.Equal(t, models.RunStatusStale, runs[1].Status)
}

func TestOlderResponseCannotClearNewerFailure(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 3)
	gate := make(chan struct{})
	f.analyzer.QueueContiguity(
		testkit.ContiguityResponse{Report: scenarioReport(), Gate: gate},
		testkit.ContiguityResponse{Err: errors.NetworkError("contiguity", fmt.Errorf("connection reset"))},
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.hc.Refresh(context.Background(), testPlan)
	}()

	select {
	case <-f.analyzer.Started:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never started")
	}

	f.hc.Refresh(context.Background(), testPlan)
	assert.Equal(t, errors.CodeNetworkError, f.hc.Snapshot().LastErrorCode)

	close(gate)
	wg.Wait()

	snap := f.hc.Snapshot()
	assert.Equal(t, uint64(0), snap.Seq)
	assert.Empty(t, snap.Discontiguous)
	assert.Equal(t, models.AnalysisStateError, snap.State)
	assert.Equal(t, errors.CodeNetworkError, snap.LastErrorCode)
	assert.Empty(t, f.mapView.Paints())
	assert.Empty(t, f.mapView.Statuses())

	runs := f.runs.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, uint64(2), runs[0].Seq)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Equal(t, uint64(1), runs[1].Seq)
	assert.Equal(t, models.RunStatusStale, runs[1].Status)
}

func TestIslandHighlightComposesCheckedDistricts(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 3)
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: contiguity.Report{
		0: {{"a", "b"}, {"c"}},
		2: {{"x"}, {"y", "z"}, {"c"}},
	}})
	f.hc.Refresh(context.Background(), testPlan)

	require.NoError(t, f.hc.SetIslandHighlight(2, true))
	assert.Equal(t, []string{"x", "c"}, paint.LiteralIDs(f.mapView.LastPaint()))

	require.NoError(t, f.hc.SetIslandHighlight(0, true))
	assert.Equal(t, []string{"c", "x"}, paint.LiteralIDs(f.mapView.LastPaint()))
	assert.Equal(t, []int{0, 2}, f.hc.Snapshot().CheckedIslands)

	require.NoError(t, f.hc.SetIslandHighlight(0, false))
	require.NoError(t, f.hc.SetIslandHighlight(2, false))
	assert.Equal(t, paint.DefaultBorders(), f.mapView.LastPaint())
	assert.Empty(t, f.hc.Snapshot().CheckedIslands)
}

func TestIslandHighlightRejections(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 2)
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: scenarioReport()})
	f.hc.Refresh(context.Background(), testPlan)

	err := f.hc.SetIslandHighlight(1, true)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	statusOnly := newControllerFixture(contiguity.VersionStatusOnly, 2)
	statusOnly.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: scenarioReport()})
	statusOnly.hc.Refresh(context.Background(), testPlan)

	err = statusOnly.hc.SetIslandHighlight(0, true)
	assert.True(t, errors.HasCode(err, errors.CodeFeatureDisabled))
}

func TestHighlightTogglesAreMutuallyExclusive(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 2)
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: scenarioReport()})
	f.hc.Refresh(context.Background(), testPlan)

	require.NoError(t, f.hc.SetIslandHighlight(0, true))
	f.hc.SetUnassignedHighlight(true)

	snap := f.hc.Snapshot()
	assert.True(t, snap.UnassignedHighlight)
	assert.Empty(t, snap.CheckedIslands)
	assert.Equal(t, paint.HighlightUnassigned(), f.mapView.LastPaint())

	require.NoError(t, f.hc.SetIslandHighlight(0, true))
	snap = f.hc.Snapshot()
	assert.False(t, snap.UnassignedHighlight)
	assert.Equal(t, []int{0}, snap.CheckedIslands)
	assert.Equal(t, []string{"c"}, paint.LiteralIDs(f.mapView.LastPaint()))

	f.hc.SetUnassignedHighlight(false)
	assert.Empty(t, f.hc.Snapshot().CheckedIslands)
	assert.Equal(t, paint.DefaultBorders(), f.mapView.LastPaint())
}

func TestNewReportResetsIslandToggles(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 2)
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: scenarioReport()})
	f.hc.Refresh(context.Background(), testPlan)

	require.NoError(t, f.hc.SetIslandHighlight(0, true))
	f.hc.Refresh(context.Background(), testPlan)

	snap := f.hc.Snapshot()
	assert.Empty(t, snap.CheckedIslands)
	assert.Equal(t, []int{0}, snap.Discontiguous)
	assert.False(t, snap.Status.Rows[0].Checked)
	assert.Equal(t, paint.DefaultBorders(), f.mapView.LastPaint())
}

func TestNewReportKeepsUnassignedHighlight(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 2)
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: scenarioReport()})
	f.hc.Refresh(context.Background(), testPlan)

	f.hc.SetUnassignedHighlight(true)
	paints := len(f.mapView.Paints())

	f.hc.Refresh(context.Background(), testPlan)

	assert.True(t, f.hc.UnassignedHighlighted())
	assert.Len(t, f.mapView.Paints(), paints)
	assert.Equal(t, paint.HighlightUnassigned(), f.mapView.LastPaint())
}

func TestRunLedgerFailureDoesNotBreakRefresh(t *testing.T) {
	f := newControllerFixture(contiguity.VersionHighlight, 2)
	f.runs.Err = fmt.Errorf("ledger offline")
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: scenarioReport()})

	f.hc.Refresh(context.Background(), testPlan)

	assert.Equal(t, models.AnalysisStateComplete, f.hc.Snapshot().State)
}

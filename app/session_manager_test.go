package app

import (
	"context"
	"testing"

	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/place"
	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/internal/testkit"
	"github.com/gomotopia/districtr/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerFixture struct {
	analyzer *testkit.ScriptedAnalyzer
	maps     map[uuid.UUID]*testkit.RecordingMap
	manager  *SessionManager
}

func newManagerFixture() *managerFixture {
	f := &managerFixture{
		analyzer: testkit.NewScriptedAnalyzer(),
		maps:     make(map[uuid.UUID]*testkit.RecordingMap),
	}
	registry := place.NewRegistry(map[string]place.Capabilities{
		"colorado":  {Contiguity: contiguity.VersionHighlight, FindUnpainted: true},
		"wisconsin": {Contiguity: contiguity.VersionStatusOnly},
	})
	sinks := func(id uuid.UUID) MapSink {
		m := testkit.NewRecordingMap()
		f.maps[id] = m
		return m
	}
	f.manager = NewSessionManager(f.analyzer, registry, sinks, testkit.NewRunLog(), nil).
		WithDispatcher(func(run func()) { run() })
	return f
}

func createRequest(placeID string) *models.CreateSessionRequest {
	return &models.CreateSessionRequest{
		Place:     placeID,
		Parts:     3,
		PartNames: []string{"North"},
		Plan:      models.RawPlan(`{"assignment":{"a":0}}`),
	}
}

func TestCreateSessionMountsAnalysis(t *testing.T) {
	f := newManagerFixture()
	f.analyzer.QueueContiguity(testkit.ContiguityResponse{Report: scenarioReport()})

	session, err := f.manager.Create(createRequest("colorado"))
	require.NoError(t, err)

	assert.Equal(t, "colorado", session.Info.Place)
	assert.Equal(t, 3, session.Info.Parts)
	require.Len(t, session.Parts, 3)
	assert.Equal(t, "North", session.Parts[0].Name)
	assert.Equal(t, "District 2", session.Parts[1].Name)
	assert.True(t, session.Locator.Enabled())

	assert.Equal(t, 1, f.analyzer.ContiguityCalls())
	assert.Equal(t, []int{0}, session.Highlights.Snapshot().Discontiguous)
	assert.NotEmpty(t, f.maps[session.Info.ID].Paints())

	got, err := f.manager.Get(session.Info.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)
	assert.Equal(t, 1, f.manager.Count())
}

func TestCreateSessionUnknownPlaceSkipsAnalysis(t *testing.T) {
	f := newManagerFixture()

	session, err := f.manager.Create(createRequest("atlantis"))
	require.NoError(t, err)

	assert.False(t, session.Highlights.Enabled())
	assert.False(t, session.Locator.Enabled())
	assert.Equal(t, 0, f.analyzer.ContiguityCalls())
}

func TestCreateSessionValidation(t *testing.T) {
	f := newManagerFixture()

	req := createRequest("colorado")
	req.Parts = 0
	_, err := f.manager.Create(req)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	assert.Equal(t, 0, f.manager.Count())
}

func TestGetUnknownSession(t *testing.T) {
	f := newManagerFixture()

	_, err := f.manager.Get(uuid.New())
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestUpdatePlanRefreshes(t *testing.T) {
	f := newManagerFixture()
	f.analyzer.QueueContiguity(
		testkit.ContiguityResponse{Report: scenarioReport()},
		testkit.ContiguityResponse{Report: contiguity.Report{}},
	)
	session, err := f.manager.Create(createRequest("colorado"))
	require.NoError(t, err)

	plan := models.RawPlan(`{"assignment":{"a":1}}`)
	require.NoError(t, f.manager.UpdatePlan(session.Info.ID, plan))

	assert.Equal(t, plan, session.Plan())
	assert.Equal(t, 2, f.analyzer.ContiguityCalls())
	assert.Equal(t, contiguity.HeaderNoGaps, session.Highlights.Snapshot().Header)

	err = f.manager.UpdatePlan(session.Info.ID, nil)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestZoomToUnassigned(t *testing.T) {
	f := newManagerFixture()
	f.analyzer.QueueUnassigned(testkit.UnassignedResponse{Report: moffatReport()})
	f.analyzer.BBox = [4]float64{1, 2, 3, 4}
	f.analyzer.BBoxFound = true

	session, err := f.manager.Create(createRequest("colorado"))
	require.NoError(t, err)

	ok, err := f.manager.ZoomToUnassigned(context.Background(), session.Info.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, f.maps[session.Info.ID].Bounds(), 1)

	disabled, err := f.manager.Create(createRequest("wisconsin"))
	require.NoError(t, err)
	_, err = f.manager.ZoomToUnassigned(context.Background(), disabled.Info.ID)
	assert.True(t, errors.HasCode(err, errors.CodeFeatureDisabled))
}

func TestUpdatePopulation(t *testing.T) {
	f := newManagerFixture()
	session, err := f.manager.Create(createRequest("wisconsin"))
	require.NoError(t, err)

	_, ok := session.Population()
	assert.False(t, ok)

	summary, err := f.manager.UpdatePopulation(session.Info.ID, &models.PopulationRequest{
		Districts:  []float64{100, 120, 80},
		Unassigned: 50,
	})
	require.NoError(t, err)
	assert.InDelta(t, 350, summary.Total, 1e-9)

	stored, ok := session.Population()
	require.True(t, ok)
	assert.Equal(t, summary, stored)

	_, err = f.manager.UpdatePopulation(session.Info.ID, &models.PopulationRequest{Districts: []float64{1}})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	_, err = f.manager.UpdatePopulation(session.Info.ID, &models.PopulationRequest{
		Districts: []float64{1, -2, 3},
	})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestCloseSession(t *testing.T) {
	f := newManagerFixture()
	session, err := f.manager.Create(createRequest("wisconsin"))
	require.NoError(t, err)

	f.manager.Close(session.Info.ID)
	_, err = f.manager.Get(session.Info.ID)
	assert.Error(t, err)
}

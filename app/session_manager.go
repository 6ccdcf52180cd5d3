package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/place"
	"github.com/gomotopia/districtr/domain/population"
	"github.com/gomotopia/districtr/internal"
	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/models"
	"github.com/gomotopia/districtr/ports"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// MapSink is everything a session pushes back to the editor map
type MapSink interface {
	ports.PaintSink
	ports.Viewport
	ports.StatusListener
}

// SinkFactory builds the map sink of a new session
type SinkFactory func(sessionID uuid.UUID) MapSink

// Analyzer is the remote analysis surface a session needs
type Analyzer interface {
	ports.ContiguityAnalyzer
	ports.UnassignedAnalyzer
	ports.BBoxLookup
}

// DefaultIDKey is the unit property matched when a session names none
const DefaultIDKey = "GEOID"

// Session is one open editor panel set
type Session struct {
	Info         models.SessionInfo
	Capabilities place.Capabilities
	Parts        []contiguity.Part
	Highlights   *HighlightController
	Locator      *UnassignedLocator

	mu         sync.RWMutex
	plan       models.RawPlan
	population *population.Summary
}

// Plan returns the latest settled plan
func (s *Session) Plan() models.RawPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// Population returns the latest population summary, if one was posted
func (s *Session) Population() (population.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.population == nil {
		return population.Summary{}, false
	}
	return *s.population, true
}

// SessionManager creates and tracks editor sessions
type SessionManager struct {
	analyzer     Analyzer
	capabilities *place.Registry
	sinks        SinkFactory
	runs         ports.AnalysisRunRepository
	logger       *internal.Logger

	// dispatch runs fire-and-forget analysis work; tests swap it for a
	// synchronous call.
	dispatch func(func())

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewSessionManager creates a session manager. runs may be nil.
func NewSessionManager(analyzer Analyzer, capabilities *place.Registry, sinks SinkFactory, runs ports.AnalysisRunRepository, logger *internal.Logger) *SessionManager {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SessionManager{
		analyzer:     analyzer,
		capabilities: capabilities,
		sinks:        sinks,
		runs:         runs,
		logger:       logger,
		dispatch:     func(f func()) { go f() },
		sessions:     make(map[uuid.UUID]*Session),
	}
}

// WithDispatcher replaces how background analysis is started
func (m *SessionManager) WithDispatcher(dispatch func(func())) *SessionManager {
	m.dispatch = dispatch
	return m
}

// Create opens a session and starts its first analysis right away
func (m *SessionManager) Create(req *models.CreateSessionRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}

	id := uuid.New()
	caps := m.capabilities.Lookup(req.Place)
	idKey := req.IDKey
	if idKey == "" {
		idKey = DefaultIDKey
	}

	parts := make([]contiguity.Part, req.Parts)
	for i := range parts {
		parts[i] = contiguity.Part{Index: i, Name: fmt.Sprintf("District %d", i+1)}
		if i < len(req.PartNames) && req.PartNames[i] != "" {
			parts[i].Name = req.PartNames[i]
		}
	}

	sink := m.sinks(id)
	lookupID := place.LookupID(req.Place, req.UnitsSource)

	session := &Session{
		Info: models.SessionInfo{
			ID:          id,
			Place:       req.Place,
			UnitsSource: req.UnitsSource,
			Parts:       req.Parts,
			CreatedAt:   time.Now(),
		},
		Capabilities: caps,
		Parts:        parts,
		plan:         req.Plan,
		Highlights: NewHighlightController(HighlightConfig{
			SessionID: id,
			Parts:     parts,
			Version:   caps.Contiguity,
			IDKey:     idKey,
		}, m.analyzer, sink, sink, m.runs, m.logger),
		Locator: NewUnassignedLocator(LocatorConfig{
			SessionID: id,
			LookupID:  lookupID,
			Separator: place.Separator(lookupID),
			Enabled:   caps.FindUnpainted,
		}, m.analyzer, m.analyzer, sink, m.runs, m.logger),
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	m.logger.Info("[Sessions] Opened %s for place=%s parts=%d contiguity=v%d find_unpainted=%t",
		id, req.Place, req.Parts, caps.Contiguity, caps.FindUnpainted)

	plan := req.Plan
	m.dispatch(func() { session.Highlights.Mount(context.Background(), plan) })
	return session, nil
}

// Get looks up an open session
func (m *SessionManager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, errors.NotFound("session " + id.String())
	}
	return session, nil
}

// UpdatePlan stores a settled plan edit and re-runs the analysis in the
// background
func (m *SessionManager) UpdatePlan(id uuid.UUID, plan models.RawPlan) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	if plan.IsEmpty() {
		return errors.InvalidInput("plan is required")
	}

	session.mu.Lock()
	session.plan = plan
	session.mu.Unlock()

	m.dispatch(func() { session.Highlights.Refresh(context.Background(), plan) })
	return nil
}

// ZoomToUnassigned runs the locator against the session's latest plan
func (m *SessionManager) ZoomToUnassigned(ctx context.Context, id uuid.UUID) (bool, error) {
	session, err := m.Get(id)
	if err != nil {
		return false, err
	}
	if !session.Locator.Enabled() {
		return false, errors.FeatureDisabled("zoom to unassigned")
	}
	_, ok := session.Locator.Locate(ctx, session.Plan())
	return ok, nil
}

// UpdatePopulation replaces the population summary of a session
func (m *SessionManager) UpdatePopulation(id uuid.UUID, req *models.PopulationRequest) (population.Summary, error) {
	session, err := m.Get(id)
	if err != nil {
		return population.Summary{}, err
	}
	if len(req.Districts) != len(session.Parts) {
		return population.Summary{}, errors.InvalidInput(
			fmt.Sprintf("expected %d district totals, got %d", len(session.Parts), len(req.Districts)))
	}
	if req.Unassigned < 0 || floats.Min(append([]float64{0}, req.Districts...)) < 0 {
		return population.Summary{}, errors.InvalidInput("population cannot be negative")
	}

	summary := population.Summarize(req.Districts, req.Unassigned)
	session.mu.Lock()
	session.population = &summary
	session.mu.Unlock()
	return summary, nil
}

// Close forgets a session
func (m *SessionManager) Close(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of open sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

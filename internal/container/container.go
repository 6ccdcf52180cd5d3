package container

import (
	"context"
	"fmt"

	"github.com/gomotopia/districtr/adapters/analysis"
	"github.com/gomotopia/districtr/adapters/postgres"
	"github.com/gomotopia/districtr/app"
	"github.com/gomotopia/districtr/domain/place"
	"github.com/gomotopia/districtr/internal"
	"github.com/gomotopia/districtr/internal/api"
	"github.com/gomotopia/districtr/internal/config"
	"github.com/gomotopia/districtr/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer); nil without a database
	RunRepo ports.AnalysisRunRepository

	// Remote analysis and place switches
	Analyzer     *analysis.Client
	Capabilities *place.Registry

	// Session components
	SSEHub         *api.SSEHub
	SessionManager *app.SessionManager
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	registry, err := place.LoadRegistry(cfg.Places.CapabilitiesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load place capabilities: %w", err)
	}
	c.Capabilities = registry

	c.Analyzer = analysis.NewClient(analysis.Endpoints{
		Contiguity: cfg.Analysis.ContiguityURL,
		Unassigned: cfg.Analysis.UnassignedURL,
		BBox:       cfg.Analysis.BBoxURL,
	}, cfg.Analysis.Timeout, logger)

	c.SSEHub = api.NewSSEHub()
	return c, nil
}

// InitWithDatabase attaches the run ledger. It must run before InitSessions
// for sessions to record their analysis runs.
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.RunRepo = postgres.NewAnalysisRunRepository(db)
	c.Logger.Info("[Container] Run ledger attached")
	return nil
}

// InitSessions builds the session manager. Map commands of each session
// go out over the SSE hub.
func (c *Container) InitSessions() {
	hub := c.SSEHub
	sinks := func(id uuid.UUID) app.MapSink {
		return api.NewMapEventSink(hub, id.String())
	}
	c.SessionManager = app.NewSessionManager(c.Analyzer, c.Capabilities, sinks, c.RunRepo, c.Logger)
	c.Logger.Info("[Container] Session manager ready (ledger=%t)", c.RunRepo != nil)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

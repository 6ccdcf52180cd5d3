package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gomotopia/districtr/app"
	"github.com/gomotopia/districtr/internal"
	"github.com/gomotopia/districtr/internal/api"
	"github.com/gomotopia/districtr/ports"
	"github.com/gomotopia/districtr/ui/middleware"

	"github.com/gin-gonic/gin"
)

//go:embed templates static
var embeddedFiles embed.FS

// Server serves the editor panels, their JSON API and the event stream
type Server struct {
	router    *gin.Engine
	templates *template.Template
	sessions  *app.SessionManager
	hub       *api.SSEHub
	runs      ports.AnalysisRunRepository
	logger    *internal.Logger
}

// NewServer creates the web server. hub and runs may be nil; without a hub
// the events route answers 503, without runs the ledger route answers 404.
func NewServer(sessions *app.SessionManager, hub *api.SSEHub, runs ports.AnalysisRunRepository, logger *internal.Logger) (*Server, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:   gin.Default(),
		sessions: sessions,
		hub:      hub,
		runs:     runs,
		logger:   logger.With("UI"),
	}

	templates, err := parseTemplates(embeddedFiles)
	if err != nil {
		return nil, err
	}
	s.templates = templates

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// parseTemplates loads every page and fragment under templates/, naming
// each by its path relative to that directory
func parseTemplates(files embed.FS) (*template.Template, error) {
	templatesFS, err := fs.Sub(files, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create templates filesystem: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob page templates: %w", err)
	}
	fragments, err := fs.Glob(templatesFS, "fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob fragment templates: %w", err)
	}

	tmpl := template.New("").Funcs(templateFuncs)
	for _, file := range append(pages, fragments...) {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", file, err)
		}
		if _, err := tmpl.New(file).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
	}
	return tmpl, nil
}

// setupMiddleware serves static assets from the embedded filesystem
func (s *Server) setupMiddleware() error {
	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	s.router.POST("/api/sessions", s.handleCreateSession)

	session := s.router.Group("/api/sessions/:id", middleware.LoadSession(s.sessions))
	{
		session.GET("/status", s.handleStatus)
		session.PUT("/plan", s.handleUpdatePlan)
		session.POST("/contiguity/:district", s.handleIslandToggle)
		session.POST("/unassigned/highlight", s.handleUnassignedToggle)
		session.POST("/unassigned/zoom", s.handleZoomToUnassigned)
		session.PUT("/population", s.handleUpdatePopulation)
		session.GET("/events", s.handleEvents)
		session.GET("/contiguity.xlsx", s.handleExportContiguity)
		session.GET("/runs", s.handleListRuns)
		session.DELETE("", s.handleCloseSession)
	}

	fragments := s.router.Group("/fragments/sessions/:id", middleware.LoadSession(s.sessions))
	{
		fragments.GET("/contiguity", s.handleContiguityFragment)
		fragments.GET("/population", s.handlePopulationFragment)
	}
}

// Handler exposes the router for an http.Server or httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

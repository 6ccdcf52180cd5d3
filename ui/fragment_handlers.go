package ui

import (
	"github.com/gomotopia/districtr/app"
	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/population"
	"github.com/gomotopia/districtr/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contiguityRow struct {
	contiguity.Row
	Name string
}

type contiguityView struct {
	SessionID string
	Enabled   bool
	Analyzing bool
	LastError string
	Status    contiguity.Status
	Rows      []contiguityRow
}

type populationBar struct {
	Number     int
	Name       string
	Color      string
	Population float64
	Width      float64
	Deviation  float64
}

type populationView struct {
	SessionID     string
	FindUnpainted bool
	UnassignedOn  bool
	HasSummary    bool
	Summary       population.Summary
	Bars          []populationBar
	ZoomError     string
}

func buildContiguityView(session *app.Session) contiguityView {
	snap := session.Highlights.Snapshot()
	view := contiguityView{
		SessionID: session.Info.ID.String(),
		Enabled:   session.Highlights.Enabled(),
		Analyzing: snap.InFlight > 0,
		LastError: snap.LastError,
		Status:    snap.Status,
		Rows:      make([]contiguityRow, len(snap.Status.Rows)),
	}
	for i, row := range snap.Status.Rows {
		view.Rows[i] = contiguityRow{Row: row, Name: session.Parts[i].Name}
	}
	return view
}

func buildPopulationView(session *app.Session) populationView {
	view := populationView{
		SessionID:     session.Info.ID.String(),
		FindUnpainted: session.Locator.Enabled(),
		UnassignedOn:  session.Highlights.UnassignedHighlighted(),
	}
	if err := session.Locator.LastError(); err != nil {
		view.ZoomError = err.Error()
	}

	summary, ok := session.Population()
	if !ok {
		return view
	}
	view.HasSummary = true
	view.Summary = summary
	for _, d := range summary.Districts {
		bar := populationBar{
			Number:     d.Index + 1,
			Color:      contiguity.ColorFor(d.Index),
			Population: d.Population,
			Width:      summary.BarWidth(d.Index),
			Deviation:  d.Deviation,
		}
		if d.Index < len(session.Parts) {
			bar.Name = session.Parts[d.Index].Name
		}
		view.Bars = append(view.Bars, bar)
	}
	return view
}

// handleContiguityFragment renders the contiguity section
func (s *Server) handleContiguityFragment(c *gin.Context) {
	s.renderTemplate(c, "fragments/contiguity.html", buildContiguityView(middleware.Session(c)))
}

// handlePopulationFragment renders the population balance section with the
// unassigned highlight toggle
func (s *Server) handlePopulationFragment(c *gin.Context) {
	s.renderTemplate(c, "fragments/population.html", buildPopulationView(middleware.Session(c)))
}

// handleIndex serves the editor shell. With ?session= naming an open
// session the panels load right away.
func (s *Server) handleIndex(c *gin.Context) {
	data := gin.H{"SessionID": ""}
	if id, err := uuid.Parse(c.Query("session")); err == nil {
		if _, err := s.sessions.Get(id); err == nil {
			data["SessionID"] = id.String()
		}
	}
	s.renderTemplate(c, "index.html", data)
}

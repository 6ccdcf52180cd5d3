package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gomotopia/districtr/adapters/excel"
	"github.com/gomotopia/districtr/app"
	"github.com/gomotopia/districtr/domain/population"
	"github.com/gomotopia/districtr/domain/unassigned"
	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/models"
	"github.com/gomotopia/districtr/ui/middleware"

	"github.com/gin-gonic/gin"
)

// UnassignedState is the zoom-to-unassigned part of a status response
type UnassignedState struct {
	Enabled     bool               `json:"enabled"`
	Highlighted bool               `json:"highlighted"`
	LastBounds  *unassigned.Bounds `json:"last_bounds,omitempty"`
	LastError   string             `json:"last_error,omitempty"`
	ErrorCode   string             `json:"last_error_code,omitempty"`
}

// StatusResponse is the JSON view of a session
type StatusResponse struct {
	Session    models.SessionInfo    `json:"session"`
	Contiguity app.HighlightSnapshot `json:"contiguity"`
	Unassigned UnassignedState       `json:"unassigned"`
	Population *population.Summary   `json:"population,omitempty"`
}

func statusOf(session *app.Session) StatusResponse {
	resp := StatusResponse{
		Session:    session.Info,
		Contiguity: session.Highlights.Snapshot(),
		Unassigned: UnassignedState{
			Enabled:     session.Locator.Enabled(),
			Highlighted: session.Highlights.UnassignedHighlighted(),
		},
	}
	if bounds, ok := session.Locator.LastBounds(); ok {
		resp.Unassigned.LastBounds = &bounds
	}
	if err := session.Locator.LastError(); err != nil {
		resp.Unassigned.LastError = err.Error()
		resp.Unassigned.ErrorCode = errors.GetCode(err)
	}
	if summary, ok := session.Population(); ok {
		resp.Population = &summary
	}
	return resp
}

// handleCreateSession opens a session and kicks off its first analysis
func (s *Server) handleCreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := s.sessions.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	id := session.Info.ID.String()
	c.JSON(http.StatusCreated, gin.H{
		"session":      session.Info,
		"capabilities": session.Capabilities,
		"events":       "/api/sessions/" + id + "/events",
		"fragments": gin.H{
			"contiguity": "/fragments/sessions/" + id + "/contiguity",
			"population": "/fragments/sessions/" + id + "/population",
		},
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusOf(middleware.Session(c)))
}

// handleUpdatePlan accepts a settled plan edit. Analysis runs in the
// background, so the answer is 202.
func (s *Server) handleUpdatePlan(c *gin.Context) {
	session := middleware.Session(c)

	var body struct {
		Plan models.RawPlan `json:"plan"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.sessions.UpdatePlan(session.Info.ID, body.Plan); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "analyzing"})
}

// handleIslandToggle flips the "Highlight islands" box of a district. The
// :district param is the 0-based district index.
func (s *Server) handleIslandToggle(c *gin.Context) {
	session := middleware.Session(c)

	district, err := strconv.Atoi(c.Param("district"))
	if err != nil || district < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "district must be a non-negative integer"})
		return
	}

	var req models.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := session.Highlights.SetIslandHighlight(district, req.Checked); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Highlights.Snapshot())
}

func (s *Server) handleUnassignedToggle(c *gin.Context) {
	session := middleware.Session(c)

	var req models.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session.Highlights.SetUnassignedHighlight(req.Checked)
	c.JSON(http.StatusOK, session.Highlights.Snapshot())
}

// handleZoomToUnassigned runs the locator synchronously. A run that fits no
// bounds still answers 200; the reason, if any, is in last_error.
func (s *Server) handleZoomToUnassigned(c *gin.Context) {
	session := middleware.Session(c)

	zoomed, err := s.sessions.ZoomToUnassigned(c.Request.Context(), session.Info.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"zoomed": zoomed}
	if zoomed {
		if bounds, ok := session.Locator.LastBounds(); ok {
			resp["bounds"] = bounds
		}
	}
	if lastErr := session.Locator.LastError(); lastErr != nil {
		resp["last_error"] = lastErr.Error()
		resp["last_error_code"] = errors.GetCode(lastErr)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpdatePopulation(c *gin.Context) {
	session := middleware.Session(c)

	var req models.PopulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	summary, err := s.sessions.UpdatePopulation(session.Info.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleEvents(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream not available"})
		return
	}
	s.hub.HandleSSE(c)
}

// handleExportContiguity downloads the contiguity section as a workbook
func (s *Server) handleExportContiguity(c *gin.Context) {
	session := middleware.Session(c)
	snap := session.Highlights.Snapshot()

	var buf bytes.Buffer
	err := excel.WriteContiguityReport(&buf, excel.ContiguityExport{
		Place:    session.Info.Place,
		Status:   snap.Status,
		Parts:    session.Parts,
		Registry: snap.Registry,
	})
	if err != nil {
		s.logger.Error("Failed to export contiguity for %s: %v", session.Info.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build workbook"})
		return
	}

	filename := fmt.Sprintf("contiguity-%s.xlsx", session.Info.ID.String()[:8])
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// handleListRuns returns the ledger entries of a session, newest first
func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		respondError(c, errors.FeatureDisabled("run ledger"))
		return
	}
	session := middleware.Session(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	runs, err := s.runs.ListRuns(c.Request.Context(), session.Info.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []*models.AnalysisRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) handleCloseSession(c *gin.Context) {
	session := middleware.Session(c)
	s.sessions.Close(session.Info.ID)
	s.logger.Info("Closed session %s", session.Info.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Count()})
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnalysisState is the lifecycle state of the most recent analysis request
type AnalysisState string

const (
	AnalysisStateIdle      AnalysisState = "idle"
	AnalysisStateAnalyzing AnalysisState = "analyzing"
	AnalysisStateComplete  AnalysisState = "complete"
	AnalysisStateError     AnalysisState = "error"
)

// CreateSessionRequest opens an editor session for one plan
type CreateSessionRequest struct {
	Place       string   `json:"place" binding:"required"`
	UnitsSource string   `json:"units_source"`
	IDKey       string   `json:"id_key"`
	Parts       int      `json:"parts"`
	PartNames   []string `json:"part_names,omitempty"`
	Plan        RawPlan  `json:"plan"`
}

// MaxParts bounds the number of districts a session can render
const MaxParts = 1000

// Validate checks the request before a session is built from it
func (r *CreateSessionRequest) Validate() error {
	if r.Place == "" {
		return fmt.Errorf("place is required")
	}
	if r.Parts < 1 || r.Parts > MaxParts {
		return fmt.Errorf("parts must be between 1 and %d", MaxParts)
	}
	if len(r.PartNames) > r.Parts {
		return fmt.Errorf("got %d part names for %d parts", len(r.PartNames), r.Parts)
	}
	if r.Plan.IsEmpty() {
		return fmt.Errorf("plan is required")
	}
	return nil
}

// ToggleRequest sets a highlight checkbox
type ToggleRequest struct {
	Checked bool `json:"checked"`
}

// PopulationRequest carries the current per-district totals
type PopulationRequest struct {
	Districts  []float64 `json:"districts"`
	Unassigned float64   `json:"unassigned"`
}

// SessionInfo describes an open session
type SessionInfo struct {
	ID          uuid.UUID `json:"id"`
	Place       string    `json:"place"`
	UnitsSource string    `json:"units_source,omitempty"`
	Parts       int       `json:"parts"`
	CreatedAt   time.Time `json:"created_at"`
}

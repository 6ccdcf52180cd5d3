package devanalysis

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gomotopia/districtr/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxPlanBytes = 32 << 20

// Server serves the three analysis endpoints over a fixed unit table
type Server struct {
	router *chi.Mux
	units  *Units
	logger *internal.Logger
}

// NewServer creates the stand-in service
func NewServer(units *Units, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router: chi.NewRouter(),
		units:  units,
		logger: logger.With("DevAnalysis"),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Post("/contigv2", s.handleContiguity)
	s.router.Post("/unassigned", s.handleUnassigned)
	s.router.Get("/findBBox", s.handleBBox)
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) readAssignment(w http.ResponseWriter, r *http.Request) (Assignment, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPlanBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	assignment, err := DecodeAssignment(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return assignment, true
}

func (s *Server) handleContiguity(w http.ResponseWriter, r *http.Request) {
	assignment, ok := s.readAssignment(w, r)
	if !ok {
		return
	}

	report := make(map[string][][]string)
	for district, islands := range s.units.Islands(assignment) {
		if district == Unassigned {
			continue
		}
		report[strconv.Itoa(district)] = islands
	}
	s.logger.Debug("Contiguity over %d units: %d districts", s.units.Len(), len(report))
	writeJSON(w, report)
}

func (s *Server) handleUnassigned(w http.ResponseWriter, r *http.Request) {
	assignment, ok := s.readAssignment(w, r)
	if !ok {
		return
	}

	islands := s.units.Islands(assignment)[Unassigned]
	if islands == nil {
		islands = [][]string{}
	}
	writeJSON(w, map[string][][]string{strconv.Itoa(Unassigned): islands})
}

// handleBBox answers ?place=&ids= with a flat [minLon, maxLon, minLat, maxLat]
// array, or an empty array when no id is known.
func (s *Server) handleBBox(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}

	var ids []string
	for _, id := range strings.Split(raw, sep) {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	box, found := s.units.BBox(ids)
	if !found {
		writeJSON(w, []float64{})
		return
	}
	writeJSON(w, box)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

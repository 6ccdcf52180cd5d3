// Package devanalysis is a local stand-in for the remote analysis service.
// It answers the contiguity, unassigned and bounding box requests from a
// unit table on disk.
package devanalysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gomotopia/districtr/adapters/excel"
)

// Unit is one map unit with its neighbors and a representative point
type Unit struct {
	ID        string     `json:"id"`
	Neighbors []string   `json:"neighbors"`
	Point     [2]float64 `json:"point"` // [lon, lat]
}

// Units is an adjacency graph over map units. Adjacency is symmetric.
type Units struct {
	order []string
	byID  map[string]*Unit
	edges map[string][]string
}

// NewUnits builds the graph. Neighbor references to unknown units are
// dropped and every edge is made symmetric.
func NewUnits(list []Unit) (*Units, error) {
	u := &Units{
		byID:  make(map[string]*Unit, len(list)),
		edges: make(map[string][]string, len(list)),
	}
	for i := range list {
		unit := list[i]
		if unit.ID == "" {
			return nil, fmt.Errorf("unit %d has no id", i)
		}
		if _, dup := u.byID[unit.ID]; dup {
			return nil, fmt.Errorf("duplicate unit id %q", unit.ID)
		}
		u.byID[unit.ID] = &unit
		u.order = append(u.order, unit.ID)
	}

	seen := make(map[[2]string]bool)
	link := func(a, b string) {
		if seen[[2]string{a, b}] {
			return
		}
		seen[[2]string{a, b}] = true
		u.edges[a] = append(u.edges[a], b)
	}
	for _, id := range u.order {
		for _, nei := range u.byID[id].Neighbors {
			if _, ok := u.byID[nei]; !ok || nei == id {
				continue
			}
			link(id, nei)
			link(nei, id)
		}
	}
	return u, nil
}

// Len returns the number of units
func (u *Units) Len() int {
	return len(u.order)
}

// Point returns the representative point of a unit
func (u *Units) Point(id string) ([2]float64, bool) {
	unit, ok := u.byID[id]
	if !ok {
		return [2]float64{}, false
	}
	return unit.Point, true
}

type unitsFile struct {
	Units []Unit `json:"units"`
}

// LoadUnits reads a unit table. JSON files hold {"units": [...]}; .xlsx and
// .csv files hold the columns id, neighbors (";" separated), lon and lat.
func LoadUnits(path string) (*Units, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv":
		return loadTable(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read units file %s: %w", path, err)
		}
		var file unitsFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse units file %s: %w", path, err)
		}
		return NewUnits(file.Units)
	}
}

func loadTable(path string) (*Units, error) {
	data, err := excel.NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}
	if err := data.RequireColumns("id", "neighbors", "lon", "lat"); err != nil {
		return nil, fmt.Errorf("units table %s: %w", path, err)
	}

	list := make([]Unit, 0, len(data.Rows))
	for i, row := range data.Rows {
		lon, err := strconv.ParseFloat(row.Get("lon"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad lon: %w", i+2, err)
		}
		lat, err := strconv.ParseFloat(row.Get("lat"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad lat: %w", i+2, err)
		}
		var neighbors []string
		for _, n := range strings.Split(row.Get("neighbors"), ";") {
			if n = strings.TrimSpace(n); n != "" {
				neighbors = append(neighbors, n)
			}
		}
		list = append(list, Unit{ID: row.Get("id"), Neighbors: neighbors, Point: [2]float64{lon, lat}})
	}
	return NewUnits(list)
}

package devanalysis

import (
	"encoding/json"
	"fmt"
)

// Unassigned is the district of units that carry no assignment
const Unassigned = -1

// Assignment maps unit id to district index
type Assignment map[string]int

type planBody struct {
	Assignment map[string]json.RawMessage `json:"assignment"`
}

// DecodeAssignment reads the assignment out of a serialized plan. A unit may
// map to a district index, a list of indices (the first is used) or null.
func DecodeAssignment(body []byte) (Assignment, error) {
	var plan planBody
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	assignment := make(Assignment, len(plan.Assignment))
	for id, raw := range plan.Assignment {
		var single *int
		if err := json.Unmarshal(raw, &single); err == nil {
			if single != nil {
				assignment[id] = *single
			}
			continue
		}
		var multi []int
		if err := json.Unmarshal(raw, &multi); err != nil {
			return nil, fmt.Errorf("unit %q: assignment must be an index, a list or null", id)
		}
		if len(multi) > 0 {
			assignment[id] = multi[0]
		}
	}
	return assignment, nil
}

// DistrictOf returns the district of a unit, Unassigned when it has none
func (a Assignment) DistrictOf(id string) int {
	if d, ok := a[id]; ok && d >= 0 {
		return d
	}
	return Unassigned
}

// Islands splits every district (Unassigned included) into connected
// components, walking units in table order. Only edges between units of the
// same district count.
func (u *Units) Islands(assignment Assignment) map[int][][]string {
	visited := make(map[string]bool, len(u.order))
	islands := make(map[int][][]string)

	for _, start := range u.order {
		if visited[start] {
			continue
		}
		district := assignment.DistrictOf(start)
		stack := []string{start}
		var island []string

		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[v] {
				continue
			}
			visited[v] = true
			island = append(island, v)
			for _, nei := range u.edges[v] {
				if !visited[nei] && assignment.DistrictOf(nei) == district {
					stack = append(stack, nei)
				}
			}
		}
		islands[district] = append(islands[district], island)
	}
	return islands
}

// BBox returns [minLon, maxLon, minLat, maxLat] over the known ids
func (u *Units) BBox(ids []string) ([4]float64, bool) {
	var box [4]float64
	found := false
	for _, id := range ids {
		p, ok := u.Point(id)
		if !ok {
			continue
		}
		if !found {
			box = [4]float64{p[0], p[0], p[1], p[1]}
			found = true
			continue
		}
		box[0] = min(box[0], p[0])
		box[1] = max(box[1], p[0])
		box[2] = min(box[2], p[1])
		box[3] = max(box[3], p[1])
	}
	return box, found
}

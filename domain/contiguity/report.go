// Package contiguity turns the island lists returned by the contiguity
// analysis service into per-district status.
//
// District indices are 0-based throughout this package. Only the rendered
// Status carries 1-based numbers.
package contiguity

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Island is a maximal connected run of unit identifiers inside one district.
type Island []string

// Report maps a district index to the islands its units form.
type Report map[int][]Island

// Registry maps a district index to the unit IDs of every island except the
// largest one. A nil entry means the district is contiguous.
type Registry map[int][]string

// Analysis is the derived state rebuilt wholesale from each Report.
type Analysis struct {
	Registry      Registry
	Discontiguous map[int]bool
}

// DecodeReport parses the service response, a JSON object keyed by decimal
// district index. Keys that are not integers in canonical form ("7", not
// "07" or "+7") are rejected, so no two keys can name the same district.
func DecodeReport(body []byte) (Report, error) {
	var raw map[string][]Island
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("contiguity report: %w", err)
	}
	report := make(Report, len(raw))
	for key, islands := range raw {
		district, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("contiguity report: district key %q is not an integer", key)
		}
		if strconv.Itoa(district) != key {
			return nil, fmt.Errorf("contiguity report: district key %q is not in canonical form", key)
		}
		report[district] = islands
	}
	return report, nil
}

// BuildRegistry derives the island registry and the discontiguous set.
// For a district with more than one island the islands are stably sorted by
// descending size, the first (largest) is dropped and the rest are
// concatenated. The input report is not modified.
func BuildRegistry(report Report) Analysis {
	analysis := Analysis{
		Registry:      make(Registry, len(report)),
		Discontiguous: make(map[int]bool),
	}

	for district, islands := range report {
		if len(islands) <= 1 {
			analysis.Registry[district] = nil
			continue
		}

		sorted := make([]Island, len(islands))
		copy(sorted, islands)
		sort.SliceStable(sorted, func(i, j int) bool {
			return len(sorted[i]) > len(sorted[j])
		})

		var minority []string
		for _, island := range sorted[1:] {
			minority = append(minority, island...)
		}
		// Keep the entry non-nil even if the minority islands were empty lists.
		if minority == nil {
			minority = []string{}
		}
		analysis.Registry[district] = minority
		analysis.Discontiguous[district] = true
	}

	return analysis
}

// DiscontiguousDistricts returns the discontiguous indices in ascending order.
func (a Analysis) DiscontiguousDistricts() []int {
	districts := make([]int, 0, len(a.Discontiguous))
	for district := range a.Discontiguous {
		districts = append(districts, district)
	}
	sort.Ints(districts)
	return districts
}

// IsDiscontiguous reports whether the district has more than one island.
func (a Analysis) IsDiscontiguous(district int) bool {
	return a.Discontiguous[district]
}

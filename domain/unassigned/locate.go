// Package unassigned picks the region of unassigned units to zoom to and
// normalizes the bounding box the lookup service returns for it.
package unassigned

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// DistrictKey is the pseudo-district the service files unassigned units under.
const DistrictKey = "-1"

// MaxLookupIDs caps how many unit IDs go into one bounding box query.
const MaxLookupIDs = 100

// Island is a run of unassigned unit IDs. The service may report null
// entries, kept here as nil pointers.
type Island []*string

// Report is the unassigned-units response: {"-1": [[id, ...], ...]}.
type Report map[string][]Island

// Bounds is a viewport rectangle as [[minLon, minLat], [maxLon, maxLat]].
type Bounds [2][2]float64

// DecodeReport parses the unassigned service response.
func DecodeReport(body []byte) (Report, error) {
	var report Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("unassigned report: %w", err)
	}
	return report, nil
}

// Islands returns the islands filed under the unassigned pseudo-district.
func (r Report) Islands() []Island {
	return r[DistrictKey]
}

// LargestIsland drops islands containing a null entry and returns the largest
// of the rest (first in response order on ties). It returns nil when nothing
// usable remains.
func LargestIsland(report Report) []string {
	var usable [][]string
	for _, island := range report.Islands() {
		ids, ok := island.ids()
		if !ok {
			continue
		}
		usable = append(usable, ids)
	}
	if len(usable) == 0 {
		return nil
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return len(usable[i]) > len(usable[j])
	})
	return usable[0]
}

func (island Island) ids() ([]string, bool) {
	ids := make([]string, 0, len(island))
	for _, id := range island {
		if id == nil {
			return nil, false
		}
		ids = append(ids, *id)
	}
	return ids, true
}

// LookupIDs returns the IDs to send to the bounding box service: the largest
// usable island capped at MaxLookupIDs.
func LookupIDs(report Report) []string {
	ids := LargestIsland(report)
	if len(ids) > MaxLookupIDs {
		ids = ids[:MaxLookupIDs]
	}
	return ids
}

// NormalizeBBox accepts either [minLon, maxLon, minLat, maxLat] or an array
// of such arrays (the first is used). ok is false for empty or malformed
// input, including null or non-finite coordinates.
func NormalizeBBox(body []byte) (box [4]float64, ok bool) {
	var flat []*float64
	if err := json.Unmarshal(body, &flat); err == nil {
		return fromSlice(flat)
	}
	var nested [][]*float64
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		return fromSlice(nested[0])
	}
	return box, false
}

func fromSlice(values []*float64) (box [4]float64, ok bool) {
	if len(values) < 4 {
		return box, false
	}
	for i, v := range values[:4] {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			return [4]float64{}, false
		}
		box[i] = *v
	}
	return box, true
}

// FitBounds converts a normalized box into the viewport fit argument.
func FitBounds(box [4]float64) Bounds {
	return Bounds{
		{box[0], box[2]},
		{box[1], box[3]},
	}
}

package contiguity

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	HeaderNoGaps = "No contiguity gaps detected"
	HeaderGaps   = "Districts may have contiguity gaps"
)

// Contiguity check versions a place can enable. Version 2 adds the
// per-district "Highlight islands" checkbox.
const (
	VersionDisabled   = 0
	VersionStatusOnly = 1
	VersionHighlight  = 2
)

// DistrictColors is the badge palette, indexed by district modulo its length.
var DistrictColors = []string{
	"#0099cd", "#ffca5d", "#00cd99", "#99cd00", "#cd0099",
	"#aa44ef", "#8dd3c7", "#bebada", "#fb8072", "#80b1d3",
	"#fdb462", "#b3de69", "#fccde5", "#bc80bd", "#ccebc5",
	"#ffed6f", "#ffffb3", "#a6cee3", "#1f78b4", "#b2df8a",
}

// Part is one district slot of the plan as shown in the panel.
type Part struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
}

// Row is the rendered state of one district in the contiguity section.
type Row struct {
	District    int
	Number      int
	Color       string
	Visible     bool
	HasCheckbox bool
	Checked     bool
}

// Status is the full projection rendered by the contiguity section.
type Status struct {
	Header  string
	Rows    []Row
	Layout  string
	HasGaps bool
}

// Header returns the status line, listing 1-based district numbers when
// there are gaps.
func Header(analysis Analysis) string {
	districts := analysis.DiscontiguousDistricts()
	if len(districts) == 0 {
		return HeaderNoGaps
	}
	numbers := make([]string, len(districts))
	for i, d := range districts {
		numbers[i] = strconv.Itoa(d + 1)
	}
	return fmt.Sprintf("%s (%s)", HeaderGaps, strings.Join(numbers, ", "))
}

// ColorFor returns the badge color of a district.
func ColorFor(district int) string {
	if district < 0 {
		district = -district
	}
	return DistrictColors[district%len(DistrictColors)]
}

// Present projects the analysis and toggle state onto rows. Every part gets a
// row; only discontiguous districts are visible.
func Present(analysis Analysis, parts []Part, version int, checked map[int]bool) Status {
	status := Status{
		Header:  Header(analysis),
		HasGaps: len(analysis.Discontiguous) > 0,
		Layout:  "flex",
	}
	if version == VersionHighlight {
		status.Layout = "block"
	}

	status.Rows = make([]Row, len(parts))
	for i, part := range parts {
		visible := analysis.IsDiscontiguous(part.Index)
		status.Rows[i] = Row{
			District:    part.Index,
			Number:      part.Index + 1,
			Color:       ColorFor(part.Index),
			Visible:     visible,
			HasCheckbox: version == VersionHighlight,
			Checked:     visible && checked[part.Index],
		}
	}
	return status
}

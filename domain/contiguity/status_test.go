package contiguity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func parts(n int) []Part {
	out := make([]Part, n)
	for i := range out {
		out[i] = Part{Index: i}
	}
	return out
}

func TestHeaderListsOneBasedDistricts(t *testing.T) {
	analysis := BuildRegistry(Report{
		0: {{"a"}},
		2: {{"b", "c"}, {"d"}},
		4: {{"e"}, {"f"}},
	})
	assert.Equal(t, "Districts may have contiguity gaps (3, 5)", Header(analysis))
}

func TestPresentHidesContiguousRows(t *testing.T) {
	analysis := BuildRegistry(Report{
		0: {{"a"}},
		1: {{"b", "c"}, {"d"}},
		2: {{"e"}},
	})

	status := Present(analysis, parts(3), VersionHighlight, map[int]bool{1: true, 2: true})

	assert.True(t, status.HasGaps)
	assert.Equal(t, "block", status.Layout)
	assert.Len(t, status.Rows, 3)

	assert.False(t, status.Rows[0].Visible)
	assert.True(t, status.Rows[1].Visible)
	assert.Equal(t, 2, status.Rows[1].Number)
	assert.Equal(t, DistrictColors[1], status.Rows[1].Color)
	assert.True(t, status.Rows[1].HasCheckbox)
	assert.True(t, status.Rows[1].Checked)
	// A toggle on a hidden row never renders as checked.
	assert.False(t, status.Rows[2].Checked)
}

func TestPresentStatusOnlyVersion(t *testing.T) {
	status := Present(BuildRegistry(Report{}), parts(2), VersionStatusOnly, nil)

	assert.Equal(t, HeaderNoGaps, status.Header)
	assert.False(t, status.HasGaps)
	assert.Equal(t, "flex", status.Layout)
	for _, row := range status.Rows {
		assert.False(t, row.HasCheckbox)
		assert.False(t, row.Visible)
	}
}

func TestColorForWraps(t *testing.T) {
	assert.Equal(t, DistrictColors[0], ColorFor(len(DistrictColors)))
	assert.Equal(t, DistrictColors[3], ColorFor(3))
}

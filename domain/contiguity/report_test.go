package contiguity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReport(t *testing.T) {
	report, err := DecodeReport([]byte(`{"0": [["a","b"],["c"]], "1": [["d","e","f"]]}`))
	require.NoError(t, err)

	assert.Len(t, report, 2)
	assert.Equal(t, []Island{{"a", "b"}, {"c"}}, report[0])
	assert.Equal(t, []Island{{"d", "e", "f"}}, report[1])
}

func TestDecodeReportRejectsBadShapes(t *testing.T) {
	_, err := DecodeReport([]byte(`{"north": [["a"]]}`))
	assert.Error(t, err)

	_, err = DecodeReport([]byte(`[1,2,3]`))
	assert.Error(t, err)

	_, err = DecodeReport([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeReportRejectsAliasedDistrictKeys(t *testing.T) {
	for _, body := range []string{
		`{"0": [["a"]], "00": [["b"],["c"]]}`,
		`{"+0": [["a"]]}`,
		`{"07": [["a"]]}`,
	} {
		t.Run(body, func(t *testing.T) {
			_, err := DecodeReport([]byte(body))
			assert.ErrorContains(t, err, "canonical")
		})
	}

	report, err := DecodeReport([]byte(`{"10": [["a"]], "-1": [["b"]]}`))
	require.NoError(t, err)
	assert.Contains(t, report, 10)
	assert.Contains(t, report, -1)
}

func TestBuildRegistryScenario(t *testing.T) {
	report, err := DecodeReport([]byte(`{"0": [["a","b"],["c"]], "1": [["d","e","f"]]}`))
	require.NoError(t, err)

	analysis := BuildRegistry(report)

	assert.Equal(t, map[int]bool{0: true}, analysis.Discontiguous)
	assert.Equal(t, []string{"c"}, analysis.Registry[0])
	entry, ok := analysis.Registry[1]
	assert.True(t, ok)
	assert.Nil(t, entry)
	assert.Equal(t, "Districts may have contiguity gaps (1)", Header(analysis))
}

func TestBuildRegistryEmpty(t *testing.T) {
	analysis := BuildRegistry(Report{})
	assert.Empty(t, analysis.Registry)
	assert.Empty(t, analysis.Discontiguous)
	assert.Equal(t, HeaderNoGaps, Header(analysis))
}

func TestBuildRegistryDropsOnlyLargestIsland(t *testing.T) {
	report := Report{
		3: {{"x"}, {"p", "q", "r"}, {"y", "z"}, {"w"}},
	}

	analysis := BuildRegistry(report)

	// Sorted: [p q r] [y z] [x] [w]; the first is dropped.
	assert.Equal(t, []string{"y", "z", "x", "w"}, analysis.Registry[3])
	assert.Equal(t, []int{3}, analysis.DiscontiguousDistricts())
	// The caller's report keeps its original order.
	assert.Equal(t, Island{"x"}, report[3][0])
}

func TestBuildRegistryTieKeepsFirstInResponseOrder(t *testing.T) {
	report := Report{
		0: {{"a", "b"}, {"c", "d"}, {"e"}},
	}

	analysis := BuildRegistry(report)

	// Equal-sized islands keep response order after a stable sort, so the
	// first one is treated as the largest.
	assert.Equal(t, []string{"c", "d", "e"}, analysis.Registry[0])
}

func TestBuildRegistryMarksOnlyMultiIslandDistricts(t *testing.T) {
	cases := []struct {
		name          string
		islands       []Island
		discontiguous bool
	}{
		{"no islands", nil, false},
		{"one island", []Island{{"a"}}, false},
		{"two islands", []Island{{"a"}, {"b"}}, true},
		{"three islands", []Island{{"a"}, {"b"}, {"c", "d"}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analysis := BuildRegistry(Report{7: tc.islands})
			assert.Equal(t, tc.discontiguous, analysis.IsDiscontiguous(7))
			if tc.discontiguous {
				total := 0
				largest := 0
				for _, island := range tc.islands {
					total += len(island)
					if len(island) > largest {
						largest = len(island)
					}
				}
				assert.Len(t, analysis.Registry[7], total-largest)
			} else {
				assert.Nil(t, analysis.Registry[7])
			}
		})
	}
}

package paint

import (
	"encoding/json"
	"testing"

	"github.com/gomotopia/districtr/domain/contiguity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() contiguity.Registry {
	return contiguity.Registry{
		0: {"c"},
		1: nil,
		2: {"x", "y"},
	}
}

func TestComposeNothingChecked(t *testing.T) {
	assert.Equal(t, DefaultBorders(), Compose(testRegistry(), nil, "GEOID"))
	assert.Equal(t, DefaultBorders(), Compose(testRegistry(), map[int]bool{0: false}, "GEOID"))
	assert.Equal(t, DefaultBorders(), Compose(contiguity.Registry{}, map[int]bool{4: true}, "GEOID"))
}

func TestComposeContiguousDistrictCheckedFallsBack(t *testing.T) {
	assert.Equal(t, DefaultBorders(), Compose(testRegistry(), map[int]bool{1: true}, "GEOID"))
}

func TestComposeUnionOfCheckedDistricts(t *testing.T) {
	p := Compose(testRegistry(), map[int]bool{2: true, 0: true, 1: true}, "GEOID")

	assert.Equal(t, []string{"c", "x", "y"}, LiteralIDs(p))
	assert.Equal(t, 0.4, p["line-opacity"])

	width := p["line-width"].([]any)
	assert.Equal(t, 4, width[2])
	assert.Equal(t, 1, width[3])
}

func TestComposeDeduplicates(t *testing.T) {
	registry := contiguity.Registry{0: {"a", "b"}, 1: {"b", "c"}}
	ids := HighlightedIDs(registry, map[int]bool{0: true, 1: true})
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestHighlightIslandsWireShape(t *testing.T) {
	raw, err := json.Marshal(HighlightIslands("id", []string{"u1"}))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"line-color": ["case", ["in", ["get", "id"], ["literal", ["u1"]]], "#f00000", "#777777"],
		"line-opacity": 0.4,
		"line-width": ["case", ["in", ["get", "id"], ["literal", ["u1"]]], 4, 1]
	}`, string(raw))
}

func TestLiteralIDsOtherShapes(t *testing.T) {
	assert.Nil(t, LiteralIDs(DefaultBorders()))
	assert.Nil(t, LiteralIDs(HighlightUnassigned()))
}

// Package paint builds the line paint properties applied to the unit
// borders layer of the map.
package paint

import (
	"sort"

	"github.com/gomotopia/districtr/domain/contiguity"
)

// Property is a map-style paint expression keyed by paint property name.
type Property map[string]any

const (
	BorderColor       = "#777777"
	IslandAccentColor = "#f00000"
	UnassignedColor   = "#ff4f49"
)

// DefaultBorders is the unconditional unit border style.
func DefaultBorders() Property {
	return Property{
		"line-color":   BorderColor,
		"line-width":   []any{"interpolate", []any{"linear"}, []any{"zoom"}, 0, 0, 7, 1},
		"line-opacity": 0.3,
	}
}

// HighlightUnassigned outlines units that carry no district color.
func HighlightUnassigned() Property {
	unpainted := []any{"==", []any{"feature-state", "color"}, nil}
	return Property{
		"line-color":   []any{"case", unpainted, UnassignedColor, BorderColor},
		"line-width":   []any{"case", unpainted, 1, 0.3},
		"line-opacity": []any{"case", unpainted, 0.8, 0.3},
	}
}

// HighlightIslands outlines the given units in the accent color with a wider
// stroke; every other unit keeps the default border color.
func HighlightIslands(idKey string, ids []string) Property {
	member := []any{"in", []any{"get", idKey}, []any{"literal", ids}}
	return Property{
		"line-color":   []any{"case", member, IslandAccentColor, BorderColor},
		"line-opacity": 0.4,
		"line-width":   []any{"case", member, 4, 1},
	}
}

// HighlightedIDs unions the registry entries of the checked districts in
// ascending district order, keeping the first occurrence of each ID.
func HighlightedIDs(registry contiguity.Registry, checked map[int]bool) []string {
	districts := make([]int, 0, len(checked))
	for district, on := range checked {
		if on {
			districts = append(districts, district)
		}
	}
	sort.Ints(districts)

	seen := make(map[string]bool)
	var ids []string
	for _, district := range districts {
		for _, id := range registry[district] {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// Compose merges the checked island toggles into one paint property. With
// nothing to highlight it falls back to DefaultBorders.
func Compose(registry contiguity.Registry, checked map[int]bool, idKey string) Property {
	ids := HighlightedIDs(registry, checked)
	if len(ids) == 0 {
		return DefaultBorders()
	}
	return HighlightIslands(idKey, ids)
}

// LiteralIDs extracts the highlighted ID set from a property produced by
// HighlightIslands. It returns nil for any other shape.
func LiteralIDs(p Property) []string {
	expr, ok := p["line-color"].([]any)
	if !ok || len(expr) != 4 || expr[0] != "case" {
		return nil
	}
	cond, ok := expr[1].([]any)
	if !ok || len(cond) != 3 || cond[0] != "in" {
		return nil
	}
	literal, ok := cond[2].([]any)
	if !ok || len(literal) != 2 || literal[0] != "literal" {
		return nil
	}
	ids, _ := literal[1].([]string)
	return ids
}

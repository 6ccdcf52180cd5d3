// Package population summarizes how evenly population is spread across the
// districts of a plan.
package population

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// District is the balance figure of one district.
type District struct {
	Index      int
	Population float64
	// Deviation is the signed fraction off the ideal, e.g. -0.02 for 2% under.
	Deviation float64
}

// Summary is what the population balance section renders.
type Summary struct {
	Total           float64
	Ideal           float64
	Unassigned      float64
	UnassignedShare float64
	MaxDeviation    float64
	Spread          float64
	Districts       []District
}

// Summarize computes the ideal district population from everything in the
// plan (assigned and unassigned) and each district's deviation from it.
func Summarize(districts []float64, unassigned float64) Summary {
	summary := Summary{Unassigned: unassigned}
	if len(districts) == 0 {
		summary.Total = unassigned
		if unassigned > 0 {
			summary.UnassignedShare = 1
		}
		return summary
	}

	summary.Total = floats.Sum(districts) + unassigned
	summary.Ideal = summary.Total / float64(len(districts))
	if summary.Total > 0 {
		summary.UnassignedShare = unassigned / summary.Total
	}

	deviations := make([]float64, len(districts))
	summary.Districts = make([]District, len(districts))
	for i, pop := range districts {
		dev := 0.0
		if summary.Ideal > 0 {
			dev = (pop - summary.Ideal) / summary.Ideal
		}
		deviations[i] = math.Abs(dev)
		summary.Districts[i] = District{Index: i, Population: pop, Deviation: dev}
	}

	// Inputs are non-empty, so these cannot fail.
	summary.MaxDeviation, _ = stats.Max(deviations)
	high, _ := stats.Max(districts)
	low, _ := stats.Min(districts)
	if summary.Ideal > 0 {
		summary.Spread = (high - low) / summary.Ideal
	}
	return summary
}

// BarWidth is the district's bar length as a percentage of the largest
// district, for the balance chart.
func (s Summary) BarWidth(index int) float64 {
	if index < 0 || index >= len(s.Districts) {
		return 0
	}
	pops := make([]float64, len(s.Districts))
	for i, d := range s.Districts {
		pops[i] = d.Population
	}
	high, err := stats.Max(pops)
	if err != nil || high <= 0 {
		return 0
	}
	return 100 * s.Districts[index].Population / high
}

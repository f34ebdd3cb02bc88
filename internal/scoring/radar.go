package scoring

import "github.com/jonathan/cb-discovery/internal/types"

// radarPillars is the radar keyword table. It starts from the maturity seeds and
// is kept separate so the chart vocabulary can change without touching scores.
var radarPillars = clonePillars(maturityPillars)

// RadarPillars returns a copy of the radar keyword table.
func RadarPillars() []Pillar {
	return clonePillars(radarPillars)
}

// Radar infers one score per pillar from a lowercase corpus.
// When explicit holds one score per pillar it is used instead of inference.
func Radar(corpus string, explicit []int) []types.RadarPoint {
	points := make([]types.RadarPoint, len(radarPillars))
	useExplicit := len(explicit) == len(radarPillars)
	for i, p := range radarPillars {
		var score int
		if useExplicit {
			score = explicit[i]
		} else {
			score = p.Rule(MaturityMultiplier, MaturityBase, MaturityCap).Score(corpus)
		}
		points[i] = types.RadarPoint{Pillar: p.Name, Score: score}
	}
	return points
}

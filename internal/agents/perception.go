package agents

import (
	"math"

	"github.com/talgya/hearsay/internal/belief"
	"github.com/talgya/hearsay/internal/world"
)

// Perceive updates the agent's belief from the true grid around it.
// Cells within senseRange are observed with certainty falling linearly to
// zero at the range edge; the observation is trusted by certainty squared,
// so distant readings barely move the belief.
func Perceive(a *Agent, g *world.Grid, senseRange int) {
	if senseRange <= 0 {
		return
	}
	r := float64(senseRange)

	minX := max(a.X-senseRange, 0)
	maxX := min(a.X+senseRange, g.Width-1)
	minY := max(a.Y-senseRange, 0)
	maxY := min(a.Y+senseRange, g.Height-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			certainty := math.Max(0, r-distance(a.X, a.Y, x, y)) / r
			obs := belief.Probable(g.At(x, y), certainty)
			a.Belief.Ptr(x, y).BlendTowards(&obs, certainty*certainty)
		}
	}
}

func distance(ax, ay, bx, by int) float64 {
	dx := float64(ax - bx)
	dy := float64(ay - by)
	return math.Sqrt(dx*dx + dy*dy)
}

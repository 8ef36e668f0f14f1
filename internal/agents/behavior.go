// Agent movement: favorability-driven greedy stepping.
// Every tick an agent scores the whole map from its own belief, walks one
// cell toward the best spot, and eats or drinks once it arrives.
package agents

import (
	"github.com/talgya/hearsay/internal/belief"
	"github.com/talgya/hearsay/internal/world"
)

// Convolution kernel spreading favorability onto neighboring cells.
const (
	kernelRadius = 2
	kernelCenter = 100.0
	kernelOuter  = 1.0
)

// Distance discount: nearby cells score up to 1, far cells never below discountFloor.
const (
	discountNear  = 0.9
	discountFloor = 0.1
)

// Action represents what an agent did this tick.
type Action struct {
	AgentID  AgentID
	Kind     ActionKind
	Consumed world.Kind // Set for ActionConsume
}

// ActionKind enumerates the possible movement-phase outcomes.
type ActionKind uint8

const (
	ActionIdle    ActionKind = iota // At the best cell but nothing consumable
	ActionStep                      // Moved one cell
	ActionConsume                   // Ate or drank the current cell
)

// RawFavorability scores every cell from the agent's belief and current needs,
// row-major. Food and water count in proportion to how urgent the matching
// need is; ghosts count against.
func RawFavorability(a *Agent, l NeedLimits) []float64 {
	m := a.Belief
	hunger := a.Needs.HungerRatio(l)
	thirst := a.Needs.ThirstRatio(l)

	out := make([]float64, m.Len())
	for i := range out {
		v := m.Cell(i)
		out[i] = v.Get(world.KindFood)*hunger + v.Get(world.KindWater)*thirst - v.Get(world.KindGhost)
	}
	return out
}

// Favorability returns the field the agent navigates by: the raw score
// convolved over a 5×5 neighborhood, then discounted by distance from the agent.
func Favorability(a *Agent, l NeedLimits) []float64 {
	w, h := a.Belief.Width, a.Belief.Height
	field := convolve(RawFavorability(a, l), w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := distance(a.X, a.Y, x, y)
			field[y*w+x] *= discountNear/(d+1) + discountFloor
		}
	}
	return field
}

// convolve applies the 5×5 kernel with zero padding outside the grid.
func convolve(src []float64, w, h int) []float64 {
	out := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for dy := -kernelRadius; dy <= kernelRadius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -kernelRadius; dx <= kernelRadius; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					k := kernelOuter
					if dx == 0 && dy == 0 {
						k = kernelCenter
					}
					sum += k * src[ny*w+nx]
				}
			}
			out[y*w+x] = sum
		}
	}
	return out
}

// Destination returns the cell with the highest score.
// Scans row-major; the first maximum wins.
func Destination(field []float64, w int) (x, y int) {
	best := 0
	for i := 1; i < len(field); i++ {
		if field[i] > field[best] {
			best = i
		}
	}
	return best % w, best / w
}

// Move advances the agent one step toward its most favorable cell, or
// tries to consume the current cell if it is already there.
func Move(a *Agent, g *world.Grid, l NeedLimits) Action {
	tx, ty := Destination(Favorability(a, l), a.Belief.Width)
	dx := tx - a.X
	dy := ty - a.Y

	switch {
	case dx == 0 && dy == 0:
		if kind, ok := Consume(a, g, l); ok {
			return Action{AgentID: a.ID, Kind: ActionConsume, Consumed: kind}
		}
		return Action{AgentID: a.ID, Kind: ActionIdle}
	case abs(dx) > abs(dy):
		a.X += sign(dx)
	default:
		a.Y += sign(dy)
	}
	return Action{AgentID: a.ID, Kind: ActionStep}
}

// Consume eats or drinks the resource under the agent if the matching need
// is high enough to use a full unit. On success the cell is cleared both in
// the world and in the agent's belief.
func Consume(a *Agent, g *world.Grid, l NeedLimits) (world.Kind, bool) {
	kind := g.At(a.X, a.Y)
	switch kind {
	case world.KindFood:
		if a.Needs.Hunger < l.HungerPerFood {
			return kind, false
		}
		a.Needs.Hunger -= l.HungerPerFood
	case world.KindWater:
		if a.Needs.Thirst < l.ThirstPerWater {
			return kind, false
		}
		a.Needs.Thirst -= l.ThirstPerWater
	default:
		return kind, false
	}

	g.Set(a.X, a.Y, world.KindNone)
	a.Belief.Set(a.X, a.Y, belief.Probable(world.KindNone, 1))
	return kind, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

package engine

import (
	"errors"

	"github.com/talgya/hearsay/internal/agents"
	"github.com/talgya/hearsay/internal/world"
)

// ErrNoData is returned by aggregate views when no agents are alive.
var ErrNoData = errors.New("no agents alive")

// Consensus compares the population's collective view with the ground truth.
type Consensus struct {
	View      []world.Kind `json:"view"`   // Row-major mode of agent pluralities
	Errors    []bool       `json:"errors"` // View differs from truth
	ErrorRate float64      `json:"error_rate"`
}

// CollectiveView returns, per cell, the kind most agents consider most likely.
// Ties go to the lowest kind ordinal.
func CollectiveView(pop []*agents.Agent, width, height int) ([]world.Kind, error) {
	if len(pop) == 0 {
		return nil, ErrNoData
	}

	votes := make([][world.NumKinds]int, width*height)
	for _, a := range pop {
		for i := range votes {
			v := a.Belief.Cell(i)
			votes[i][v.Plurality()]++
		}
	}

	view := make([]world.Kind, len(votes))
	for i, tally := range votes {
		best := 0
		for k := 1; k < world.NumKinds; k++ {
			if tally[k] > tally[best] {
				best = k
			}
		}
		view[i] = world.Kind(best)
	}
	return view, nil
}

// ErrorGrid marks every cell where view disagrees with the grid.
func ErrorGrid(view []world.Kind, g *world.Grid) []bool {
	truth := g.Cells()
	errs := make([]bool, len(truth))
	for i := range truth {
		errs[i] = view[i] != truth[i]
	}
	return errs
}

// ErrorRate returns the fraction of true entries.
func ErrorRate(errs []bool) float64 {
	if len(errs) == 0 {
		return 0
	}
	n := 0
	for _, e := range errs {
		if e {
			n++
		}
	}
	return float64(n) / float64(len(errs))
}

// AgentErrorGrid marks every cell where the agent's most likely kind is wrong.
func AgentErrorGrid(a *agents.Agent, g *world.Grid) []bool {
	view := make([]world.Kind, a.Belief.Len())
	for i := range view {
		v := a.Belief.Cell(i)
		view[i] = v.Plurality()
	}
	return ErrorGrid(view, g)
}

// Consensus computes the collective view and its error against the grid.
func (s *Simulation) Consensus() (Consensus, error) {
	view, err := CollectiveView(s.Agents, s.Grid.Width, s.Grid.Height)
	if err != nil {
		return Consensus{}, err
	}
	errs := ErrorGrid(view, s.Grid)
	return Consensus{View: view, Errors: errs, ErrorRate: ErrorRate(errs)}, nil
}

// SelectedErrors returns the error grid of the selected agent.
func (s *Simulation) SelectedErrors() ([]bool, error) {
	a, ok := s.SelectedAgent()
	if !ok {
		return nil, ErrNoData
	}
	return AgentErrorGrid(a, s.Grid), nil
}

// SelectedFavorability returns the navigation field of the selected agent.
func (s *Simulation) SelectedFavorability() ([]float64, error) {
	a, ok := s.SelectedAgent()
	if !ok {
		return nil, ErrNoData
	}
	return agents.Favorability(a, s.Params.Limits), nil
}

package engine

import "github.com/talgya/hearsay/internal/agents"

// SelectNext moves the analytics selection to the next agent, wrapping around.
func (s *Simulation) SelectNext() {
	if len(s.Agents) == 0 {
		s.Selected = 0
		return
	}
	s.Selected = (s.Selected + 1) % len(s.Agents)
}

// SelectPrev moves the analytics selection to the previous agent, wrapping around.
func (s *Simulation) SelectPrev() {
	if len(s.Agents) == 0 {
		s.Selected = 0
		return
	}
	if s.Selected == 0 {
		s.Selected = len(s.Agents) - 1
		return
	}
	s.Selected--
}

// SelectedAgent returns the selected agent, if any are alive.
func (s *Simulation) SelectedAgent() (*agents.Agent, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Agents) {
		return nil, false
	}
	return s.Agents[s.Selected], true
}

// clampSelection keeps the selection valid after agents are removed.
func (s *Simulation) clampSelection() {
	if s.Selected >= len(s.Agents) {
		s.Selected = max(len(s.Agents)-1, 0)
	}
}

// Package agents provides the agent data model, needs, perception and
// movement policy.
package agents

import (
	"fmt"

	"github.com/talgya/hearsay/internal/belief"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Agent is a mobile observer with needs and a private belief about the grid.
type Agent struct {
	ID AgentID `json:"id"`

	// Location, always within grid bounds.
	X int `json:"x"`
	Y int `json:"y"`

	Needs Needs `json:"needs"`

	// Belief has the same dimensions as the world grid and is only
	// modified by this agent's own decay, perception and gossip.
	Belief *belief.Map `json:"-"`
}

// String returns a short description for logs.
func (a *Agent) String() string {
	return fmt.Sprintf("agent#%d(%d,%d)", a.ID, a.X, a.Y)
}

// Agent spawning: creates the initial population at random positions
// with random beliefs and no needs.
package agents

import (
	"math/rand/v2"

	"github.com/talgya/hearsay/internal/belief"
)

// Spawner creates agents for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner drawing from rng.
func NewSpawner(rng *rand.Rand) *Spawner {
	return &Spawner{
		rng:    rng,
		nextID: 1,
	}
}

// SpawnPopulation creates count agents on a width×height grid.
func (s *Spawner) SpawnPopulation(count, width, height int) []*Agent {
	agents := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		agents = append(agents, s.spawnOne(width, height))
	}
	return agents
}

func (s *Spawner) spawnOne(width, height int) *Agent {
	id := s.nextID
	s.nextID++

	return &Agent{
		ID:     id,
		Belief: belief.NewRandomMap(width, height, s.rng),
		X:      s.rng.IntN(width),
		Y:      s.rng.IntN(height),
	}
}

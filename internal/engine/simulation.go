// Simulation ties the world grid and the agent population together and runs
// the per-tick phase sequence.
package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/talgya/hearsay/internal/agents"
	"github.com/talgya/hearsay/internal/belief"
	"github.com/talgya/hearsay/internal/world"
)

// ErrInvalidParams is returned when the simulation cannot be initialized.
var ErrInvalidParams = errors.New("invalid simulation parameters")

// Params holds everything that shapes a run.
type Params struct {
	World      world.GenConfig
	NumAgents  int
	Limits     agents.NeedLimits
	SenseRange int
	DecayRate  float64

	// GossipTrust is the trust each partner gives the other during exchange.
	GossipTrust float64
	// GossipSample limits exchange to this many random cells; 0 exchanges the whole map.
	GossipSample int

	// ReportEvery logs a consensus report every N ticks; 0 disables it.
	ReportEvery uint64
}

// DefaultParams returns the standard configuration.
func DefaultParams() Params {
	return Params{
		World:        world.DefaultGenConfig(),
		NumAgents:    64,
		Limits:       agents.DefaultNeedLimits(),
		SenseRange:   10,
		DecayRate:    0.0001,
		GossipTrust:  0.5,
		GossipSample: 0,
		ReportEvery:  100,
	}
}

// Validate checks the parameters for configuration errors.
func (p Params) Validate() error {
	if p.World.Width <= 0 || p.World.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidParams, p.World.Width, p.World.Height)
	}
	if p.NumAgents <= 0 {
		return fmt.Errorf("%w: %d agents", ErrInvalidParams, p.NumAgents)
	}
	if p.DecayRate < 0 || p.DecayRate > 1 {
		return fmt.Errorf("%w: decay rate %v", ErrInvalidParams, p.DecayRate)
	}
	if p.GossipTrust < 0 || p.GossipTrust > 1 {
		return fmt.Errorf("%w: gossip trust %v", ErrInvalidParams, p.GossipTrust)
	}
	if p.GossipSample < 0 {
		return fmt.Errorf("%w: gossip sample %d", ErrInvalidParams, p.GossipSample)
	}
	if p.SenseRange < 0 {
		return fmt.Errorf("%w: sense range %d", ErrInvalidParams, p.SenseRange)
	}
	l := p.Limits
	if l.MaxHunger == 0 || l.MaxThirst == 0 {
		return fmt.Errorf("%w: need limits hunger %d thirst %d", ErrInvalidParams, l.MaxHunger, l.MaxThirst)
	}
	if l.HungerPerFood == 0 || l.ThirstPerWater == 0 {
		return fmt.Errorf("%w: consumption hunger %d thirst %d", ErrInvalidParams, l.HungerPerFood, l.ThirstPerWater)
	}
	return nil
}

// Simulation holds the complete world state.
type Simulation struct {
	Params   Params
	Grid     *world.Grid
	Agents   []*agents.Agent
	Selected int    // Agent index for analytics/rendering only
	LastTick uint64 // Most recent tick processed

	Stats SimStats

	rng *rand.Rand
	log *zap.Logger
}

// SimStats tracks aggregate statistics for the last tick.
type SimStats struct {
	Tick        uint64   `json:"tick"`
	Population  int      `json:"population"`
	Deaths      int      `json:"deaths"`      // Total since start
	Starved     int      `json:"starved"`     // This tick
	FoodEaten   int      `json:"food_eaten"`  // This tick
	WaterDrunk  int      `json:"water_drunk"` // This tick
	GossipPairs int      `json:"gossip_pairs"`
	AvgHunger   float64  `json:"avg_hunger"`
	AvgThirst   float64  `json:"avg_thirst"`
	ErrorRate   *float64 `json:"error_rate"` // Collective view vs truth; nil with no agents
}

// NewSimulation generates a world and population from params.
// All randomness, now and on every later tick, is drawn from rng.
func NewSimulation(p Params, rng *rand.Rand, logger *zap.Logger) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	grid, err := world.Generate(p.World, rng)
	if err != nil {
		return nil, fmt.Errorf("generate world: %w", err)
	}

	spawner := agents.NewSpawner(rng)
	pop := spawner.SpawnPopulation(p.NumAgents, grid.Width, grid.Height)

	sim := &Simulation{
		Params: p,
		Grid:   grid,
		Agents: pop,
		rng:    rng,
		log:    logger,
	}
	sim.updateStats()
	return sim, nil
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// Tick advances the world by one tick. Phases run strictly in order, each
// finishing for every agent before the next begins.
func (s *Simulation) Tick() {
	s.LastTick++
	s.Stats.FoodEaten = 0
	s.Stats.WaterDrunk = 0
	s.Stats.GossipPairs = 0
	s.Stats.Starved = 0

	s.updateResources()
	s.updateNeeds()
	s.decayBeliefs()
	s.perceive()
	s.move()
	s.gossip()

	s.updateStats()

	if s.Params.ReportEvery > 0 && s.LastTick%s.Params.ReportEvery == 0 {
		s.report()
	}
}

func (s *Simulation) updateResources() {
	s.Grid.Tick(s.rng)
}

// updateNeeds raises every agent's needs, then removes the starved.
func (s *Simulation) updateNeeds() {
	for _, a := range s.Agents {
		a.Needs.Tick()
	}

	alive := s.Agents[:0]
	for _, a := range s.Agents {
		if a.Needs.Starved(s.Params.Limits) {
			s.Stats.Deaths++
			s.Stats.Starved++
			s.log.Debug("agent starved",
				zap.Uint64("tick", s.LastTick),
				zap.Uint64("agent", uint64(a.ID)),
				zap.Uint32("hunger", a.Needs.Hunger),
				zap.Uint32("thirst", a.Needs.Thirst),
			)
			continue
		}
		alive = append(alive, a)
	}
	for i := len(alive); i < len(s.Agents); i++ {
		s.Agents[i] = nil
	}
	s.Agents = alive
	s.clampSelection()
}

func (s *Simulation) decayBeliefs() {
	for _, a := range s.Agents {
		a.Belief.Decay(s.Params.DecayRate)
	}
}

func (s *Simulation) perceive() {
	for _, a := range s.Agents {
		agents.Perceive(a, s.Grid, s.Params.SenseRange)
	}
}

func (s *Simulation) move() {
	for _, a := range s.Agents {
		act := agents.Move(a, s.Grid, s.Params.Limits)
		if act.Kind != agents.ActionConsume {
			continue
		}
		switch act.Consumed {
		case world.KindFood:
			s.Stats.FoodEaten++
		case world.KindWater:
			s.Stats.WaterDrunk++
		}
	}
}

// gossip pairs agents at random and has each pair exchange beliefs.
// With an odd population one agent sits the tick out.
func (s *Simulation) gossip() {
	order := make([]*agents.Agent, len(s.Agents))
	copy(order, s.Agents)
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	for i := 0; i+1 < len(order); i += 2 {
		a, b := order[i].Belief, order[i+1].Belief
		if s.Params.GossipSample > 0 {
			cells := belief.SampleCells(s.Grid.Width, s.Grid.Height, s.Params.GossipSample, s.rng)
			belief.ExchangeSample(a, b, s.Params.GossipTrust, cells)
		} else {
			belief.Exchange(a, b, s.Params.GossipTrust)
		}
		s.Stats.GossipPairs++
	}
}

func (s *Simulation) updateStats() {
	s.Stats.Tick = s.LastTick
	s.Stats.Population = len(s.Agents)
	s.Stats.AvgHunger = 0
	s.Stats.AvgThirst = 0
	s.Stats.ErrorRate = nil

	if len(s.Agents) == 0 {
		return
	}
	var hunger, thirst float64
	for _, a := range s.Agents {
		hunger += float64(a.Needs.Hunger)
		thirst += float64(a.Needs.Thirst)
	}
	s.Stats.AvgHunger = hunger / float64(len(s.Agents))
	s.Stats.AvgThirst = thirst / float64(len(s.Agents))

	if c, err := s.Consensus(); err == nil {
		rate := c.ErrorRate
		s.Stats.ErrorRate = &rate
	}
}

func (s *Simulation) report() {
	fields := []zap.Field{
		zap.Uint64("tick", s.LastTick),
		zap.Int("alive", s.Stats.Population),
		zap.Int("deaths", s.Stats.Deaths),
		zap.Int("food_eaten", s.Stats.FoodEaten),
		zap.Int("water_drunk", s.Stats.WaterDrunk),
		zap.String("avg_hunger", fmt.Sprintf("%.1f", s.Stats.AvgHunger)),
		zap.String("avg_thirst", fmt.Sprintf("%.1f", s.Stats.AvgThirst)),
	}
	if s.Stats.ErrorRate != nil {
		fields = append(fields, zap.String("error_rate", fmt.Sprintf("%.4f", *s.Stats.ErrorRate)))
	} else {
		fields = append(fields, zap.Bool("no_data", true))
	}
	s.log.Info("consensus report", fields...)
}

package agents

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hearsay/internal/belief"
	"github.com/talgya/hearsay/internal/world"
)

func testLimits() NeedLimits {
	return NeedLimits{MaxHunger: 1000, MaxThirst: 1000, HungerPerFood: 1, ThirstPerWater: 1}
}

func filledGrid(w, h int, k world.Kind) *world.Grid {
	g := world.NewGrid(w, h, world.BiomeField{{X: 0, Y: 0, Type: world.BiomePlains}})
	g.Fill(k)
	return g
}

// certainMap believes every cell holds k.
func certainMap(w, h int, k world.Kind) *belief.Map {
	m := belief.NewUniformMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, belief.Probable(k, 1))
		}
	}
	return m
}

func TestNeeds_TickAndStarved(t *testing.T) {
	l := NeedLimits{MaxHunger: 3, MaxThirst: 5}
	var n Needs
	n.Tick()
	n.Tick()
	assert.Equal(t, Needs{Hunger: 2, Thirst: 2}, n)
	assert.False(t, n.Starved(l))
	n.Tick()
	assert.True(t, n.Starved(l))

	sat := Needs{Hunger: math.MaxUint32, Thirst: 1}
	sat.Tick()
	assert.Equal(t, uint32(math.MaxUint32), sat.Hunger)
}

func TestPerceive_OwnCellBecomesCertain(t *testing.T) {
	g := filledGrid(10, 10, world.KindFood)
	a := &Agent{ID: 1, X: 4, Y: 6, Belief: belief.NewUniformMap(10, 10)}

	Perceive(a, g, 10)

	v := a.Belief.At(4, 6)
	assert.Equal(t, world.KindFood, v.Plurality())
	assert.InDelta(t, 1.0, v.Get(world.KindFood), 1e-9)
}

func TestPerceive_NothingBeyondRange(t *testing.T) {
	g := filledGrid(20, 1, world.KindStone)
	a := &Agent{ID: 1, X: 0, Y: 0, Belief: belief.NewUniformMap(20, 1)}

	Perceive(a, g, 3)

	// Distance 3 has zero certainty and zero trust.
	edge := a.Belief.At(3, 0)
	for _, p := range edge {
		assert.InDelta(t, 1.0/world.NumKinds, p, 1e-12)
	}
	assert.Equal(t, belief.Uniform(), a.Belief.At(10, 0))
	near := a.Belief.At(1, 0)
	assert.Equal(t, world.KindStone, near.Plurality())
}

func TestPerceive_ZeroRangeIsNoop(t *testing.T) {
	g := filledGrid(3, 3, world.KindFood)
	a := &Agent{Belief: belief.NewUniformMap(3, 3)}
	Perceive(a, g, 0)
	assert.Equal(t, belief.Uniform(), a.Belief.At(0, 0))
}

func TestMove_ConsumesFoodAtDestination(t *testing.T) {
	l := testLimits()
	g := filledGrid(10, 10, world.KindNone)
	g.Set(3, 3, world.KindFood)

	m := certainMap(10, 10, world.KindNone)
	m.Set(3, 3, belief.Probable(world.KindFood, 1))
	a := &Agent{ID: 1, X: 3, Y: 3, Needs: Needs{Hunger: l.MaxHunger - 1}, Belief: m}

	act := Move(a, g, l)

	assert.Equal(t, ActionConsume, act.Kind)
	assert.Equal(t, world.KindFood, act.Consumed)
	assert.Equal(t, l.MaxHunger-2, a.Needs.Hunger)
	assert.Equal(t, world.KindNone, g.At(3, 3))
	got := a.Belief.At(3, 3)
	assert.InDelta(t, 1.0, got.Get(world.KindNone), 1e-9)
}

func TestConsume_ThresholdNotMet(t *testing.T) {
	l := NeedLimits{MaxHunger: 1000, MaxThirst: 1000, HungerPerFood: 50, ThirstPerWater: 50}
	g := filledGrid(2, 2, world.KindWater)
	a := &Agent{X: 1, Y: 1, Needs: Needs{Thirst: 49}, Belief: belief.NewUniformMap(2, 2)}

	kind, ok := Consume(a, g, l)
	assert.False(t, ok)
	assert.Equal(t, world.KindWater, kind)
	assert.Equal(t, world.KindWater, g.At(1, 1))
	assert.Equal(t, uint32(49), a.Needs.Thirst)
	assert.Equal(t, belief.Uniform(), a.Belief.At(1, 1))

	a.Needs.Thirst = 60
	_, ok = Consume(a, g, l)
	require.True(t, ok)
	assert.Equal(t, uint32(10), a.Needs.Thirst)
	assert.Equal(t, world.KindNone, g.At(1, 1))
}

func TestConsume_IgnoresInedible(t *testing.T) {
	g := filledGrid(1, 1, world.KindStone)
	a := &Agent{Needs: Needs{Hunger: 500, Thirst: 500}, Belief: belief.NewUniformMap(1, 1)}
	_, ok := Consume(a, g, testLimits())
	assert.False(t, ok)
	assert.Equal(t, world.KindStone, g.At(0, 0))
}

func TestMove_StepsAlongLargerAxis(t *testing.T) {
	l := testLimits()
	g := filledGrid(10, 10, world.KindNone)
	m := certainMap(10, 10, world.KindNone)
	m.Set(8, 5, belief.Probable(world.KindFood, 1))
	a := &Agent{X: 2, Y: 3, Needs: Needs{Hunger: 500}, Belief: m}

	act := Move(a, g, l)
	assert.Equal(t, ActionStep, act.Kind)
	assert.Equal(t, 3, a.X)
	assert.Equal(t, 3, a.Y)
}

func TestMove_TieBreaksTowardY(t *testing.T) {
	l := testLimits()
	g := filledGrid(10, 10, world.KindNone)
	m := certainMap(10, 10, world.KindNone)
	m.Set(5, 5, belief.Probable(world.KindWater, 1))
	a := &Agent{X: 2, Y: 8, Needs: Needs{Thirst: 500}, Belief: m}

	Move(a, g, l)
	assert.Equal(t, 2, a.X)
	assert.Equal(t, 7, a.Y)
}

func TestMove_AvoidsGhosts(t *testing.T) {
	l := testLimits()
	g := filledGrid(7, 1, world.KindNone)
	m := certainMap(7, 1, world.KindNone)
	m.Set(0, 0, belief.Probable(world.KindGhost, 1))
	a := &Agent{X: 1, Y: 0, Belief: m}

	field := Favorability(a, l)
	x, _ := Destination(field, 7)
	assert.Greater(t, x, 2)

	act := Move(a, g, l)
	assert.Equal(t, ActionStep, act.Kind)
	assert.Equal(t, 2, a.X, "steps away from the ghost")
	assert.Equal(t, 0, a.Y)
	assert.Equal(t, world.KindNone, g.At(0, 0))
}

func TestConvolve_KernelWeights(t *testing.T) {
	src := make([]float64, 25)
	src[12] = 1 // center of a 5×5 grid
	out := convolve(src, 5, 5)
	assert.Equal(t, 100.0, out[12])
	assert.Equal(t, 1.0, out[0])
	assert.Equal(t, 1.0, out[24])

	// Zero padding: a corner impulse reaches only the 3×3 quadrant.
	src = make([]float64, 25)
	src[0] = 1
	out = convolve(src, 5, 5)
	assert.Equal(t, 100.0, out[0])
	assert.Equal(t, 1.0, out[2*5+2])
	assert.Equal(t, 0.0, out[3])
}

func TestDestination_FirstMaximumWins(t *testing.T) {
	x, y := Destination([]float64{0, 2, 1, 2, 0, 2}, 3)
	assert.Equal(t, 1, x)
	assert.Equal(t, 0, y)
}

func TestRawFavorability_WeightsByNeed(t *testing.T) {
	m := belief.NewUniformMap(2, 1)
	m.Set(0, 0, belief.Probable(world.KindFood, 1))
	m.Set(1, 0, belief.Probable(world.KindWater, 1))
	a := &Agent{Needs: Needs{Hunger: 250, Thirst: 500}, Belief: m}
	raw := RawFavorability(a, NeedLimits{MaxHunger: 1000, MaxThirst: 1000})
	assert.InDelta(t, 0.25, raw[0], 1e-9)
	assert.InDelta(t, 0.5, raw[1], 1e-9)
}

func TestSpawner_PopulationWithinBounds(t *testing.T) {
	s := NewSpawner(rand.New(rand.NewPCG(1, 2)))
	pop := s.SpawnPopulation(30, 12, 7)
	require.Len(t, pop, 30)
	seen := map[AgentID]bool{}
	for _, a := range pop {
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
		assert.True(t, a.X >= 0 && a.X < 12)
		assert.True(t, a.Y >= 0 && a.Y < 7)
		assert.Equal(t, Needs{}, a.Needs)
		assert.Equal(t, 12*7, a.Belief.Len())
	}
}

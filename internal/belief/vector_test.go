package belief

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hearsay/internal/world"
)

const tol = 1e-9

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func requireDistribution(t *testing.T, v Vector) {
	t.Helper()
	assert.InDelta(t, 1.0, v.Sum(), tol, "vector %v does not sum to 1", v)
	for i, p := range v {
		assert.GreaterOrEqual(t, p, 0.0, "slot %d negative in %v", i, v)
	}
}

func TestVector_ReachableStatesStayNormalized(t *testing.T) {
	rng := testRand()
	v := UniformRandom(rng)
	requireDistribution(t, v)

	for i := 0; i < 2000; i++ {
		switch rng.IntN(3) {
		case 0:
			v.Decay(rng.Float64())
		case 1:
			p := Probable(world.Kind(rng.IntN(world.NumKinds)), rng.Float64())
			v.BlendTowards(&p, rng.Float64())
		case 2:
			o := UniformRandom(rng)
			v.BlendTowards(&o, rng.Float64())
		}
		requireDistribution(t, v)
	}
}

func TestProbable_Extremes(t *testing.T) {
	for _, k := range world.Kinds {
		u := Probable(k, 0)
		for _, p := range u {
			assert.InDelta(t, 1.0/world.NumKinds, p, tol)
		}

		one := Probable(k, 1)
		for i, p := range one {
			if world.Kind(i) == k {
				assert.InDelta(t, 1.0, p, tol)
			} else {
				assert.InDelta(t, 0.0, p, tol)
				assert.GreaterOrEqual(t, p, 0.0)
			}
		}
	}
}

func TestProbable_ClampsCertainty(t *testing.T) {
	assert.Equal(t, Probable(world.KindFood, 1), Probable(world.KindFood, 3))
	assert.Equal(t, Probable(world.KindFood, 0), Probable(world.KindFood, -2))
}

func TestDecay_Extremes(t *testing.T) {
	rng := testRand()
	for i := 0; i < 50; i++ {
		v := UniformRandom(rng)
		orig := v
		v.Decay(0)
		assert.Equal(t, orig, v)

		v.Decay(1)
		assert.Equal(t, Uniform(), v)
	}
}

func TestBlendTowards_SelfIsNoop(t *testing.T) {
	rng := testRand()
	for _, trust := range []float64{0, 0.25, 0.5, 0.75, 1} {
		v := UniformRandom(rng)
		orig := v
		self := v
		v.BlendTowards(&self, trust)
		for i := range v {
			assert.InDelta(t, orig[i], v[i], tol, "trust %v", trust)
		}
	}
}

func TestBlendTowards_TrustEndpoints(t *testing.T) {
	food := Probable(world.KindFood, 1)
	water := Probable(world.KindWater, 1)

	keep := food
	keep.BlendTowards(&water, 0)
	assert.Equal(t, world.KindFood, keep.Plurality())
	assert.InDelta(t, 1.0, keep.Get(world.KindFood), tol)

	adopt := food
	adopt.BlendTowards(&water, 1)
	assert.Equal(t, world.KindWater, adopt.Plurality())
	assert.InDelta(t, 1.0, adopt.Get(world.KindWater), tol)
}

func TestBlendTowards_ConfidentObservationWins(t *testing.T) {
	v := Uniform()
	obs := Probable(world.KindStone, 1)
	v.BlendTowards(&obs, 1)
	assert.Equal(t, world.KindStone, v.Plurality())

	v = Uniform()
	v.BlendTowards(&obs, 0.5)
	assert.Equal(t, world.KindStone, v.Plurality())
	requireDistribution(t, v)
}

func TestPlurality(t *testing.T) {
	for _, k := range world.Kinds {
		v := Probable(k, 1)
		assert.Equal(t, k, v.Plurality())
	}
	u := Uniform()
	assert.Equal(t, world.KindNone, u.Plurality())

	tied := Vector{0.1, 0.1, 0.35, 0.35, 0.1}
	assert.Equal(t, world.KindWater, tied.Plurality())
}

func TestNormalize_DegenerateFallsBackToUniform(t *testing.T) {
	if debugAssertions {
		t.Skip("degenerate vectors panic under beliefdebug")
	}
	zero := Vector{}
	zero.Normalize()
	assert.Equal(t, Uniform(), zero)

	nan := Vector{math.NaN(), 0.5, 0.5, 0, 0}
	nan.Normalize()
	assert.Equal(t, Uniform(), nan)

	inf := Vector{math.Inf(1), 0, 0, 0, 0}
	inf.Normalize()
	assert.Equal(t, Uniform(), inf)
}

func TestNormalize_Rescales(t *testing.T) {
	v := Vector{2, 2, 4, 0, 0}
	v.Normalize()
	require.InDelta(t, 1.0, v.Sum(), tol)
	assert.InDelta(t, 0.5, v.Get(world.KindWater), tol)
}

// Package belief implements categorical beliefs over resource kinds and the
// operators that update them: sensing, decay, and trust-weighted blending.
package belief

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/talgya/hearsay/internal/world"
)

// degenerateTotal is the smallest vector mass that can be renormalized.
const degenerateTotal = 1e-12

// pivot is the midpoint used to measure how extreme a probability or trust is.
const pivot = 0.5

// Vector is a probability distribution over resource kinds, indexed by kind ordinal.
// Entries are non-negative and sum to 1.
type Vector [world.NumKinds]float64

// Uniform returns the maximally uncertain vector.
func Uniform() Vector {
	var v Vector
	for i := range v {
		v[i] = 1.0 / world.NumKinds
	}
	return v
}

// UniformRandom draws a positive weight per slot and normalizes.
func UniformRandom(rng *rand.Rand) Vector {
	var v Vector
	for i := range v {
		v[i] = rng.Float64()
	}
	v.Normalize()
	return v
}

// Probable returns a vector leaning toward kind with the given certainty.
// Certainty 0 yields Uniform, certainty 1 yields a one-hot vector.
func Probable(kind world.Kind, certainty float64) Vector {
	c := math.Max(0, math.Min(1, certainty))
	even := 1.0 / world.NumKinds
	subject := even + (1-even)*c
	rest := math.Max(0, (1-subject)/(world.NumKinds-1))

	var v Vector
	for i := range v {
		v[i] = rest
	}
	v[kind] = subject
	return v
}

// Get returns the probability assigned to kind.
func (v *Vector) Get(kind world.Kind) float64 {
	return v[kind]
}

// Sum returns the total mass of the vector.
func (v *Vector) Sum() float64 {
	total := 0.0
	for _, p := range v {
		total += p
	}
	return total
}

// Plurality returns the most probable kind. Ties go to the lowest ordinal.
func (v *Vector) Plurality() world.Kind {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return world.Kind(best)
}

// Normalize rescales the vector to sum to 1.
// A vector with no usable mass falls back to Uniform.
func (v *Vector) Normalize() {
	total := 0.0
	for _, p := range v {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			v.degenerate(fmt.Sprintf("entry %v", p))
			return
		}
		total += p
	}
	if total <= degenerateTotal {
		v.degenerate(fmt.Sprintf("total %v", total))
		return
	}
	for i := range v {
		v[i] /= total
	}
}

func (v *Vector) degenerate(reason string) {
	if debugAssertions {
		panic("belief: degenerate probability vector: " + reason)
	}
	*v = Uniform()
}

// Decay moves the vector toward Uniform by rate (0 keeps it, 1 replaces it).
// Mass is preserved, so no renormalization is needed.
func (v *Vector) Decay(rate float64) {
	even := rate / world.NumKinds
	for i := range v {
		v[i] = v[i]*(1-rate) + even
	}
}

// BlendTowards merges other into v.
//
// Trust near 0 keeps v, trust near 1 copies other. Near 0.5 the weight of each
// slot depends on how confident both sides are: when both are extreme (close
// to 0 or 1) v holds its ground, when either is near 0.5 the two average.
func (v *Vector) BlendTowards(other *Vector, trust float64) {
	trustInfluence := math.Abs(pivot-trust) / pivot
	for i := range v {
		bias := math.Abs(pivot-v[i]) / pivot
		otherBias := math.Abs(pivot-other[i]) / pivot
		w := (1-trust)*trustInfluence + (bias*otherBias*0.5+0.5)*(1-trustInfluence)
		v[i] = v[i]*w + other[i]*(1-w)
	}
	v.Normalize()
}

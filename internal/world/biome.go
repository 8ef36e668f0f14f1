package world

import (
	"math"
	"math/rand/v2"
)

// BiomeType classifies a region of the map.
type BiomeType uint8

const (
	BiomePlains    BiomeType = iota // Mostly food
	BiomeLake                       // Water only
	BiomeMountain                   // Mostly stone
	BiomeGraveyard                  // Barren, haunted
)

// NumBiomeTypes is the total number of biome types.
const NumBiomeTypes = 4

// biomeWeights holds each biome's categorical distribution over kinds,
// indexed [BiomeType][Kind].
var biomeWeights = [NumBiomeTypes][NumKinds]float64{
	BiomePlains:    {0.2, 0.75, 0.0, 0.05, 0.0},
	BiomeLake:      {0.0, 0.0, 1.0, 0.0, 0.0},
	BiomeMountain:  {0.05, 0.05, 0.05, 0.85, 0.0},
	BiomeGraveyard: {0.9, 0.0, 0.0, 0.05, 0.05},
}

// String returns a human-readable name for a biome type.
func (b BiomeType) String() string {
	switch b {
	case BiomePlains:
		return "plains"
	case BiomeLake:
		return "lake"
	case BiomeMountain:
		return "mountain"
	case BiomeGraveyard:
		return "graveyard"
	default:
		return "unknown"
	}
}

// MarshalText encodes the biome type by name.
func (b BiomeType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Weights returns the biome's distribution over resource kinds.
func (b BiomeType) Weights() [NumKinds]float64 {
	return biomeWeights[b]
}

// Sample draws a resource kind from the biome's distribution.
func (b BiomeType) Sample(rng *rand.Rand) Kind {
	w := biomeWeights[b]
	total := 0.0
	for _, v := range w {
		total += v
	}
	r := rng.Float64() * total
	acc := 0.0
	last := KindNone
	for i, v := range w {
		if v <= 0 {
			continue
		}
		acc += v
		last = Kind(i)
		if r < acc {
			return Kind(i)
		}
	}
	// Float rounding can leave r == total; fall back to the last weighted kind.
	return last
}

// Biome is a regional center with a type.
type Biome struct {
	X    int       `json:"x"`
	Y    int       `json:"y"`
	Type BiomeType `json:"type"`
}

// BiomeField is the ordered set of biome centers. It is fixed after generation.
type BiomeField []Biome

// Nearest returns the biome whose center is closest to (x, y).
// Linear scan; on equal distances the first center in the field wins.
func (f BiomeField) Nearest(x, y int) Biome {
	best := 0
	bestDist := math.Inf(1)
	for i, b := range f {
		dx := float64(x - b.X)
		dy := float64(y - b.Y)
		d := math.Sqrt(dx*dx + dy*dy)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return f[best]
}

func randomBiomes(n, width, height int, rng *rand.Rand) BiomeField {
	f := make(BiomeField, n)
	for i := range f {
		f[i] = Biome{
			X:    rng.IntN(width),
			Y:    rng.IntN(height),
			Type: BiomeType(rng.IntN(NumBiomeTypes)),
		}
	}
	return f
}

// World generation and stochastic drift.
// Biome centers are scattered at random; every cell is sampled from the
// nearest center's distribution, then drifts slowly tick by tick.
package world

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidDimensions is returned when the grid would be empty.
var ErrInvalidDimensions = errors.New("grid dimensions must be positive")

// Drift thresholds for Tick, out of driftRange.
// Most rolls keep the cell; rarer ones copy a neighbor, resample the biome,
// or pick any kind at all.
const (
	driftRange    = 1_000_000
	driftKeep     = 999_899
	driftNeighbor = 999_989
	driftBiome    = 999_998
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width     int
	Height    int
	NumBiomes int
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:     128,
		Height:    128,
		NumBiomes: 12,
	}
}

// Generate creates a grid, places biome centers and samples every cell.
func Generate(cfg GenConfig, rng *rand.Rand) (*Grid, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("generate %dx%d: %w", cfg.Width, cfg.Height, ErrInvalidDimensions)
	}
	n := cfg.NumBiomes
	if n < 1 {
		n = 1
	}

	biomes := randomBiomes(n, cfg.Width, cfg.Height, rng)
	g := NewGrid(cfg.Width, cfg.Height, biomes)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.Set(x, y, biomes.Nearest(x, y).Type.Sample(rng))
		}
	}
	return g, nil
}

// Tick applies one generation of stochastic drift to every cell.
// All cells read from the previous generation, never from cells already
// updated this tick.
func (g *Grid) Tick(rng *rand.Rand) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			i := g.Index(x, y)
			r := rng.IntN(driftRange)
			switch {
			case r <= driftKeep:
				g.next[i] = g.cells[i]
			case r <= driftNeighbor:
				nx := clamp(x+rng.IntN(3)-1, 0, g.Width-1)
				ny := clamp(y+rng.IntN(3)-1, 0, g.Height-1)
				g.next[i] = g.cells[g.Index(nx, ny)]
			case r <= driftBiome:
				g.next[i] = g.BiomeAt(x, y).Type.Sample(rng)
			default:
				g.next[i] = Kind(rng.IntN(NumKinds))
			}
		}
	}
	g.cells, g.next = g.next, g.cells
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package world

import "fmt"

// Grid holds the ground-truth resource field.
// Cells are stored row-major: index = y*Width + x.
type Grid struct {
	Width  int
	Height int
	Biomes BiomeField

	cells []Kind
	next  []Kind // scratch buffer for Tick
}

// NewGrid creates a grid of the given size with every cell set to KindNone.
func NewGrid(width, height int, biomes BiomeField) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Biomes: biomes,
		cells:  make([]Kind, width*height),
		next:   make([]Kind, width*height),
	}
}

// Index converts a coordinate to a row-major cell index.
func (g *Grid) Index(x, y int) int {
	return y*g.Width + x
}

// InBounds returns true if (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the kind stored at (x, y).
func (g *Grid) At(x, y int) Kind {
	return g.cells[g.Index(x, y)]
}

// Set stores a kind at (x, y).
func (g *Grid) Set(x, y int, k Kind) {
	g.cells[g.Index(x, y)] = k
}

// Fill sets every cell to k.
func (g *Grid) Fill(k Kind) {
	for i := range g.cells {
		g.cells[i] = k
	}
}

// Cells returns a copy of the grid contents in row-major order.
func (g *Grid) Cells() []Kind {
	out := make([]Kind, len(g.cells))
	copy(out, g.cells)
	return out
}

// BiomeAt returns the biome governing cell (x, y).
func (g *Grid) BiomeAt(x, y int) Biome {
	return g.Biomes.Nearest(x, y)
}

// KindCounts returns how many cells hold each kind.
func (g *Grid) KindCounts() [NumKinds]int {
	var counts [NumKinds]int
	for _, k := range g.cells {
		counts[k]++
	}
	return counts
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, biomes=%d)", g.Width, g.Height, len(g.Biomes))
}

package belief

import (
	"math/rand/v2"

	"github.com/talgya/hearsay/internal/world"
)

// Map is one agent's belief about every grid cell, stored row-major.
type Map struct {
	Width  int
	Height int
	cells  []Vector
}

// NewUniformMap creates a map where every cell is maximally uncertain.
func NewUniformMap(width, height int) *Map {
	m := &Map{Width: width, Height: height, cells: make([]Vector, width*height)}
	u := Uniform()
	for i := range m.cells {
		m.cells[i] = u
	}
	return m
}

// NewRandomMap creates a map with an independent random belief per cell.
func NewRandomMap(width, height int, rng *rand.Rand) *Map {
	m := &Map{Width: width, Height: height, cells: make([]Vector, width*height)}
	for i := range m.cells {
		m.cells[i] = UniformRandom(rng)
	}
	return m
}

// Len returns the number of cells.
func (m *Map) Len() int {
	return len(m.cells)
}

// At returns a copy of the belief for cell (x, y).
func (m *Map) At(x, y int) Vector {
	return m.cells[y*m.Width+x]
}

// Ptr returns the belief for cell (x, y) for in-place updates.
func (m *Map) Ptr(x, y int) *Vector {
	return &m.cells[y*m.Width+x]
}

// Set replaces the belief for cell (x, y).
func (m *Map) Set(x, y int, v Vector) {
	m.cells[y*m.Width+x] = v
}

// Cell returns the belief at a row-major index.
func (m *Map) Cell(i int) Vector {
	return m.cells[i]
}

// Clone returns an independent copy of the map.
func (m *Map) Clone() *Map {
	c := &Map{Width: m.Width, Height: m.Height, cells: make([]Vector, len(m.cells))}
	copy(c.cells, m.cells)
	return c
}

// Decay moves every cell toward Uniform by rate.
func (m *Map) Decay(rate float64) {
	for i := range m.cells {
		m.cells[i].Decay(rate)
	}
}

// BlendTowards blends every cell toward the matching cell of other.
// other must have the same dimensions and must not alias m.
func (m *Map) BlendTowards(other *Map, trust float64) {
	for i := range m.cells {
		m.cells[i].BlendTowards(&other.cells[i], trust)
	}
}

// Pluralities returns the most probable kind of every cell, row-major.
func (m *Map) Pluralities() []world.Kind {
	out := make([]world.Kind, len(m.cells))
	for i := range m.cells {
		out[i] = m.cells[i].Plurality()
	}
	return out
}

// Exchange makes a and b each blend toward the other's belief.
// Both sides read snapshots taken before either is modified, so the
// result does not depend on which side is updated first.
func Exchange(a, b *Map, trust float64) {
	aSnap := a.Clone()
	bSnap := b.Clone()
	a.BlendTowards(bSnap, trust)
	b.BlendTowards(aSnap, trust)
}

// ExchangeSample is Exchange restricted to the given cell indices.
func ExchangeSample(a, b *Map, trust float64, cells []int) {
	aSnap := make([]Vector, len(cells))
	bSnap := make([]Vector, len(cells))
	for j, i := range cells {
		aSnap[j] = a.cells[i]
		bSnap[j] = b.cells[i]
	}
	for j, i := range cells {
		a.cells[i].BlendTowards(&bSnap[j], trust)
		b.cells[i].BlendTowards(&aSnap[j], trust)
	}
}

// SampleCells draws n distinct row-major cell indices from a width×height map.
// If n covers the whole map every index is returned.
func SampleCells(width, height, n int, rng *rand.Rand) []int {
	total := width * height
	if n >= total {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return rng.Perm(total)[:n]
}

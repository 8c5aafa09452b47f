// Package grid holds the two generations of the automaton: a host-side
// Grid used for seeding and readback, and the device-resident Pair that
// the step engine ping-pongs between.
package grid

import (
	"math/rand/v2"

	"github.com/san-kum/gpulife/internal/life"
)

// Grid is a row-major W×H array of cell intensities.
type Grid struct {
	W, H  int
	cells []uint8
}

// New allocates an all-dead w×h grid. The size must pass
// compute.CheckSize.
func New(w, h int) *Grid {
	return &Grid{W: w, H: h, cells: make([]uint8, w*h)}
}

// Cells exposes the backing slice for device upload and readback.
func (g *Grid) Cells() []uint8 { return g.cells }

func (g *Grid) Size() (int, int) { return g.W, g.H }

func (g *Grid) Index(x, y int) int { return y*g.W + x }

func (g *Grid) At(x, y int) uint8 {
	p := life.Wrap(x, y, g.W, g.H)
	return g.cells[g.Index(p.X, p.Y)]
}

func (g *Grid) Set(x, y int, alive bool) {
	p := life.Wrap(x, y, g.W, g.H)
	v := life.Dead
	if alive {
		v = life.Alive
	}
	g.cells[g.Index(p.X, p.Y)] = v
}

func (g *Grid) Alive(x, y int) bool { return life.IsAlive(g.At(x, y)) }

// Population counts live cells.
func (g *Grid) Population() int {
	n := 0
	for _, c := range g.cells {
		if life.IsAlive(c) {
			n++
		}
	}
	return n
}

// Fraction returns the share of live cells.
func (g *Grid) Fraction() float64 {
	if len(g.cells) == 0 {
		return 0
	}
	return float64(g.Population()) / float64(len(g.cells))
}

// Equal reports whether both grids hold the same live cells.
func (g *Grid) Equal(o *Grid) bool {
	if g.W != o.W || g.H != o.H {
		return false
	}
	for i := range g.cells {
		if life.IsAlive(g.cells[i]) != life.IsAlive(o.cells[i]) {
			return false
		}
	}
	return true
}

// Seed fills the grid with independent Bernoulli(density) cells.
func Seed(g *Grid, density float64, rng *rand.Rand) {
	for i := range g.cells {
		g.cells[i] = life.Dead
		if rng.Float64() < density {
			g.cells[i] = life.Alive
		}
	}
}

// NewRNG returns the deterministic generator used for seeding.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

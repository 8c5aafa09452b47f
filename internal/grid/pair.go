package grid

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"github.com/san-kum/gpulife/internal/compute"
)

// Pair is the two device images of the automaton. One is current (read by
// the kernel and the display pass), the other is the write target of the
// step in progress. Swap flips the roles without moving data.
type Pair struct {
	backend compute.Backend
	images  [2]compute.Image
	cur     int
	w, h    int
}

// NewPair allocates both images on b and seeds the current one with
// Bernoulli(density) cells. The upload is verified by reading it back.
func NewPair(b compute.Backend, w, h int, density float64, rng *rand.Rand) (*Pair, error) {
	if err := compute.CheckSize(w, h); err != nil {
		return nil, errors.Wrap(err, "grid size")
	}
	seed := New(w, h)
	Seed(seed, density, rng)
	return NewPairFrom(b, seed)
}

// NewPairFrom allocates both images and uploads g as the current generation.
func NewPairFrom(b compute.Backend, g *Grid) (*Pair, error) {
	cur, err := b.NewImage(g.W, g.H, g.Cells())
	if err != nil {
		return nil, errors.Wrap(err, "allocate current grid")
	}
	next, err := b.NewImage(g.W, g.H, nil)
	if err != nil {
		_ = b.ReleaseImage(cur)
		return nil, errors.Wrap(err, "allocate next grid")
	}
	p := &Pair{backend: b, images: [2]compute.Image{cur, next}, w: g.W, h: g.H}

	check, err := p.Snapshot()
	if err != nil {
		p.Release()
		return nil, errors.Wrap(err, "verify grid upload")
	}
	if !check.Equal(g) {
		p.Release()
		return nil, errors.New("grid upload verification failed: readback differs")
	}
	return p, nil
}

func (p *Pair) Size() (int, int) { return p.w, p.h }

// Current returns the authoritative generation. It must only be read.
func (p *Pair) Current() compute.Image { return p.images[p.cur] }

// Writable returns the scratch generation. It must only be written.
func (p *Pair) Writable() compute.Image { return p.images[1-p.cur] }

func (p *Pair) Swap() { p.cur = 1 - p.cur }

// Snapshot reads the current generation back into a host grid.
func (p *Pair) Snapshot() (*Grid, error) {
	g := New(p.w, p.h)
	if err := p.backend.ReadImage(p.Current(), g.Cells()); err != nil {
		return nil, err
	}
	return g, nil
}

// Release frees both images. The pair is unusable afterwards.
func (p *Pair) Release() {
	for i, img := range p.images {
		if img != nil {
			_ = p.backend.ReleaseImage(img)
			p.images[i] = nil
		}
	}
}

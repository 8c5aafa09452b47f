// Package render draws the current generation to the surface.
package render

import (
	"github.com/pkg/errors"
	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/life"
)

// ErrNotReady is returned by Draw when the display program failed to build.
var ErrNotReady = errors.New("render: display program unavailable")

type Pipeline struct {
	backend compute.Backend
	program compute.Program
	w, h    int
}

// New builds the display program and sizes the viewport to w×h, one output
// pixel per cell. As with the step engine, a build error yields a pipeline
// that is not Ready.
func New(b compute.Backend, w, h int) (*Pipeline, error) {
	p := &Pipeline{backend: b, w: w, h: h}
	if err := b.Viewport(w, h); err != nil {
		return p, errors.Wrap(err, "set viewport")
	}
	prog, err := b.CompileGraphics(life.DisplayShader())
	if err != nil {
		return p, errors.Wrap(err, "build display shader")
	}
	p.program = prog
	return p, nil
}

func (p *Pipeline) Ready() bool { return p.program != nil }

func (p *Pipeline) Size() (int, int) { return p.w, p.h }

// Draw rasterizes img over the whole viewport. img must be the current
// generation and must not be written until the frame has been presented.
func (p *Pipeline) Draw(img compute.Image) error {
	if !p.Ready() {
		return ErrNotReady
	}
	if err := p.backend.DrawFullscreen(p.program, img); err != nil {
		return errors.Wrap(err, "draw grid")
	}
	return nil
}

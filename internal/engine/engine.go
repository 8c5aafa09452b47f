// Package engine advances the automaton one generation at a time on a
// compute device.
//
// A step binds the current image for reading and the scratch image for
// writing, dispatches the life kernel over the whole grid, waits on the
// device barrier and only then swaps the pair. A step that fails at any
// point before the swap leaves both images and their roles untouched.
package engine

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/grid"
	"github.com/san-kum/gpulife/internal/life"
)

const (
	readSlot  = 0
	writeSlot = 1
)

// ErrNotReady is returned by Step when the kernel failed to build.
var ErrNotReady = errors.New("engine: step kernel unavailable")

type Engine struct {
	backend    compute.Backend
	pair       *grid.Pair
	program    compute.Program
	groupsX    int
	groupsY    int
	generation uint64
}

// New compiles the step kernel for pair's device. On a build error the
// returned engine is not nil but not Ready, so callers can keep the
// visualization alive without computing.
func New(b compute.Backend, pair *grid.Pair) (*Engine, error) {
	w, h := pair.Size()
	e := &Engine{
		backend: b,
		pair:    pair,
		groupsX: compute.GroupCount(w, life.LocalSize),
		groupsY: compute.GroupCount(h, life.LocalSize),
	}
	prog, err := b.CompileCompute(life.StepKernel())
	if err != nil {
		return e, pkgerrors.Wrap(err, "build step kernel")
	}
	e.program = prog
	return e, nil
}

func (e *Engine) Ready() bool { return e.program != nil }

// Current returns the generation the display pass may sample this frame.
func (e *Engine) Current() compute.Image { return e.pair.Current() }

// Generation counts completed steps.
func (e *Engine) Generation() uint64 { return e.generation }

func (e *Engine) Groups() (int, int) { return e.groupsX, e.groupsY }

// Step computes the next generation into the scratch image, issues the
// barrier and swaps. It blocks until the barrier has completed.
func (e *Engine) Step() error {
	if !e.Ready() {
		return ErrNotReady
	}
	cur, next := e.pair.Current(), e.pair.Writable()
	if err := e.backend.BindReadImage(readSlot, cur); err != nil {
		return pkgerrors.Wrap(err, "bind current grid")
	}
	if err := e.backend.BindWriteImage(writeSlot, next); err != nil {
		return pkgerrors.Wrap(err, "bind next grid")
	}
	if err := e.backend.Dispatch(e.program, e.groupsX, e.groupsY); err != nil {
		return pkgerrors.Wrapf(err, "dispatch %dx%d groups", e.groupsX, e.groupsY)
	}
	if err := e.backend.Barrier(); err != nil {
		return pkgerrors.Wrap(err, "barrier")
	}
	e.pair.Swap()
	e.generation++
	return nil
}

package frame

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/san-kum/gpulife/internal/compute"
)

type State int

const (
	Running State = iota
	Closed
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "closed"
}

// ErrClosed is returned by Run on a driver that already reached Closed.
var ErrClosed = errors.New("frame: driver closed")

// Stepper is the compute side of a frame.
type Stepper interface {
	Ready() bool
	Step() error
	Current() compute.Image
	Generation() uint64
}

// Drawer is the render side of a frame.
type Drawer interface {
	Ready() bool
	Draw(img compute.Image) error
}

// Surface is the window or terminal the frames are presented on.
type Surface interface {
	Present() error
	PollCloseSignal() bool
	Close() error
}

type Driver struct {
	engine   Stepper
	renderer Drawer
	surface  Surface
	clock    *FrameClock
	log      *log.Logger

	state    State
	frames   uint64
	skipped  int
	lastErr  map[string]string
	observer func(Throughput)
	onClose  []func()
}

func NewDriver(e Stepper, r Drawer, s Surface, clock *FrameClock, logger *log.Logger) *Driver {
	if clock == nil {
		clock = NewFrameClock(MinInterval)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Driver{
		engine:   e,
		renderer: r,
		surface:  s,
		clock:    clock,
		log:      logger,
		state:    Running,
		lastErr:  make(map[string]string),
	}
}

// OnThroughput registers fn to receive every throughput sample.
func (d *Driver) OnThroughput(fn func(Throughput)) { d.observer = fn }

// OnClose registers teardown run once when the driver reaches Closed.
// Hooks run in reverse registration order.
func (d *Driver) OnClose(fn func()) { d.onClose = append(d.onClose, fn) }

func (d *Driver) State() State { return d.state }

// Frames counts presented frames.
func (d *Driver) Frames() uint64 { return d.frames }

// Run loops until the surface asks to close or ctx is cancelled. Per-frame
// failures are logged and the frame is skipped; Run itself only fails when
// called on a closed driver.
func (d *Driver) Run(ctx context.Context) error {
	if d.state == Closed {
		return ErrClosed
	}
	idle := !d.engine.Ready() || !d.renderer.Ready()
	if idle {
		d.log.Error("pipeline unusable, presenting without compute or render")
	}

	d.clock.Start()
	for d.state == Running {
		if !idle {
			d.frame()
		}
		d.report("present failed", d.surface.Present())
		d.frames++

		if t, ok := d.clock.Tick(); ok {
			t.Generation = d.engine.Generation()
			t.Skipped = d.skipped
			d.skipped = 0
			d.log.Info("throughput", "fps", int(t.FPS+0.5), "frames", t.Frames, "generation", t.Generation, "skipped", t.Skipped)
			if d.observer != nil {
				d.observer(t)
			}
		}

		if d.surface.PollCloseSignal() || ctx.Err() != nil {
			d.close()
		}
	}
	return nil
}

func (d *Driver) frame() {
	stepErr := d.engine.Step()
	if stepErr != nil {
		d.skipped++
	}
	d.report("step skipped", stepErr)
	// A failed step leaves the previous generation current; it is still
	// drawn so the display stays live.
	d.report("draw skipped", d.renderer.Draw(d.engine.Current()))
}

// report tracks the outcome of one frame phase. A failure is logged unless
// it repeats the last failure of the same phase; a success re-arms
// logging for that phase.
func (d *Driver) report(msg string, err error) {
	if err == nil {
		delete(d.lastErr, msg)
		return
	}
	text := err.Error()
	if d.lastErr[msg] == text {
		return
	}
	d.lastErr[msg] = text
	d.log.Warn(msg, "err", err)
}

func (d *Driver) close() {
	d.state = Closed
	d.log.Debug("close requested", "frames", d.frames, "generation", d.engine.Generation())
	for i := len(d.onClose) - 1; i >= 0; i-- {
		d.onClose[i]()
	}
	d.onClose = nil
}

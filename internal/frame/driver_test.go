package frame

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/engine"
	"github.com/san-kum/gpulife/internal/grid"
	"github.com/san-kum/gpulife/internal/render"
)

type recorder struct {
	calls []string
}

func (r *recorder) add(s string) { r.calls = append(r.calls, s) }

type fakeEngine struct {
	rec     *recorder
	ready   bool
	stepErr error
	gen     uint64
}

func (f *fakeEngine) Ready() bool            { return f.ready }
func (f *fakeEngine) Current() compute.Image { return nil }
func (f *fakeEngine) Generation() uint64     { return f.gen }
func (f *fakeEngine) Step() error {
	f.rec.add("step")
	if f.stepErr != nil {
		return f.stepErr
	}
	f.gen++
	return nil
}

type fakeRenderer struct {
	rec     *recorder
	ready   bool
	drawErr error
}

func (f *fakeRenderer) Ready() bool { return f.ready }
func (f *fakeRenderer) Draw(compute.Image) error {
	f.rec.add("draw")
	return f.drawErr
}

type fakeSurface struct {
	rec        *recorder
	closeAfter int
	polls      int
	presentErr error
}

func (f *fakeSurface) Present() error {
	f.rec.add("present")
	return f.presentErr
}

func (f *fakeSurface) PollCloseSignal() bool {
	f.rec.add("poll")
	f.polls++
	return f.polls >= f.closeAfter
}

func (f *fakeSurface) Close() error { return nil }

func quietLogger() *log.Logger { return log.New(io.Discard) }

func newFakes(frames int) (*recorder, *fakeEngine, *fakeRenderer, *fakeSurface) {
	rec := &recorder{}
	return rec,
		&fakeEngine{rec: rec, ready: true},
		&fakeRenderer{rec: rec, ready: true},
		&fakeSurface{rec: rec, closeAfter: frames}
}

func TestDriver_FrameOrdering(t *testing.T) {
	rec, e, r, s := newFakes(3)
	d := NewDriver(e, r, s, nil, quietLogger())
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := strings.Repeat("step draw present poll ", 3)
	if got := strings.Join(rec.calls, " ") + " "; got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
	if d.State() != Closed {
		t.Errorf("state = %v, want closed", d.State())
	}
	if d.Frames() != 3 || e.gen != 3 {
		t.Errorf("frames = %d, generation = %d, want 3/3", d.Frames(), e.gen)
	}
}

func TestDriver_ClosedIsTerminal(t *testing.T) {
	_, e, r, s := newFakes(1)
	d := NewDriver(e, r, s, nil, quietLogger())

	var teardown []string
	d.OnClose(func() { teardown = append(teardown, "grids") })
	d.OnClose(func() { teardown = append(teardown, "surface") })

	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Join(teardown, ",") != "surface,grids" {
		t.Errorf("teardown order = %v", teardown)
	}
	if err := d.Run(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("second Run: got %v, want ErrClosed", err)
	}
	if len(teardown) != 2 {
		t.Errorf("teardown ran %d times", len(teardown))
	}
}

func TestDriver_ContextCancelClosesBetweenFrames(t *testing.T) {
	rec, e, r, s := newFakes(1 << 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDriver(e, r, s, nil, quietLogger())
	if err := d.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(rec.calls, " "); got != "step draw present poll" {
		t.Errorf("cancelled run should finish the frame in flight, got %q", got)
	}
}

func TestDriver_StepFailureKeepsLoopAlive(t *testing.T) {
	rec, e, r, s := newFakes(4)
	e.stepErr = errors.New("dispatch failed")

	var buf bytes.Buffer
	d := NewDriver(e, r, s, nil, log.New(&buf))
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d.Frames() != 4 {
		t.Errorf("frames = %d, want 4", d.Frames())
	}
	if e.gen != 0 {
		t.Errorf("generation advanced to %d despite failing steps", e.gen)
	}
	draws := 0
	for _, c := range rec.calls {
		if c == "draw" {
			draws++
		}
	}
	if draws != 4 {
		t.Errorf("stale generation drawn %d times, want 4", draws)
	}
	if n := strings.Count(buf.String(), "dispatch failed"); n != 1 {
		t.Errorf("repeated failure logged %d times, want 1:\n%s", n, buf.String())
	}
}

func TestDriver_DrawAndPresentFailuresAreContained(t *testing.T) {
	_, e, r, s := newFakes(50)
	r.drawErr = errors.New("draw failed")
	s.presentErr = errors.New("swap failed")

	var buf bytes.Buffer
	d := NewDriver(e, r, s, nil, log.New(&buf))
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.gen != 50 {
		t.Errorf("generation = %d, want 50", e.gen)
	}
	for _, msg := range []string{"draw failed", "swap failed"} {
		if n := strings.Count(buf.String(), msg); n != 1 {
			t.Errorf("%q logged %d times over 50 frames, want 1", msg, n)
		}
	}
}

type flakySurface struct {
	fakeSurface
	failing []bool
}

func (f *flakySurface) Present() error {
	i := f.polls
	if i < len(f.failing) && f.failing[i] {
		return errors.New("swap failed")
	}
	return nil
}

func TestDriver_RecoveryRearmsFailureLog(t *testing.T) {
	rec, e, r, _ := newFakes(0)
	s := &flakySurface{
		fakeSurface: fakeSurface{rec: rec, closeAfter: 6},
		failing:     []bool{true, true, false, true, true, true},
	}

	var buf bytes.Buffer
	d := NewDriver(e, r, s, nil, log.New(&buf))
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "swap failed"); n != 2 {
		t.Errorf("failure logged %d times, want 2 (once per failing streak):\n%s", n, buf.String())
	}
}

func TestDriver_IdlesWhenPipelineUnusable(t *testing.T) {
	for _, broken := range []string{"engine", "renderer"} {
		rec, e, r, s := newFakes(5)
		if broken == "engine" {
			e.ready = false
		} else {
			r.ready = false
		}

		d := NewDriver(e, r, s, nil, quietLogger())
		if err := d.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		want := strings.TrimSpace(strings.Repeat("present poll ", 5))
		if got := strings.Join(rec.calls, " "); got != want {
			t.Errorf("%s broken: calls = %q, want %q", broken, got, want)
		}
		if d.State() != Closed {
			t.Errorf("%s broken: driver did not close", broken)
		}
	}
}

func TestDriver_ThroughputObserver(t *testing.T) {
	_, e, r, s := newFakes(10)
	ft := &fakeTime{t: time.Unix(50, 0)}
	clock := NewFrameClock(time.Second)
	clock.now = func() time.Time {
		ft.advance(250 * time.Millisecond)
		return ft.now()
	}

	var samples []Throughput
	d := NewDriver(e, r, s, clock, quietLogger())
	d.OnThroughput(func(s Throughput) { samples = append(samples, s) })
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Frames != 4 || samples[0].FPS != 4 {
		t.Errorf("first sample = %+v", samples[0])
	}
	if samples[1].Generation != 8 {
		t.Errorf("second sample generation = %d, want 8", samples[1].Generation)
	}
}

func TestDriver_RunsRealPipelineHeadless(t *testing.T) {
	b := compute.NewCPUBackend(2)
	pair, err := grid.NewPair(b, 48, 32, 0.5, grid.NewRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(b, pair)
	if err != nil {
		t.Fatal(err)
	}
	ren, err := render.New(b, 48, 32)
	if err != nil {
		t.Fatal(err)
	}
	surface := NewHeadless(25)

	d := NewDriver(eng, ren, surface, nil, quietLogger())
	released := false
	d.OnClose(func() {
		pair.Release()
		released = true
	})
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if surface.Presented() != 25 || eng.Generation() != 25 {
		t.Errorf("presented %d frames, generation %d, want 25/25", surface.Presented(), eng.Generation())
	}
	if !released {
		t.Error("teardown did not run")
	}
}

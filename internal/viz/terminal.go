package viz

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/frame"
)

// DefaultFrameGap limits how often frames are pushed to the terminal. The
// driver may run far faster than a terminal can repaint.
const DefaultFrameGap = time.Second / 30

// Terminal is a frame surface drawing a device framebuffer as braille
// characters.
type Terminal struct {
	fb      compute.Framebuffer
	model   Model
	program *tea.Program
	send    func(tea.Msg)
	done    chan struct{}
	started bool
	err     error

	canvas *Canvas
	gap    time.Duration
	now    func() time.Time
	last   time.Time
}

func NewTerminal(fb compute.Framebuffer, m Model, opts ...tea.ProgramOption) *Terminal {
	p := tea.NewProgram(m, opts...)
	return &Terminal{
		fb:      fb,
		model:   m,
		program: p,
		send:    p.Send,
		done:    make(chan struct{}),
		gap:     DefaultFrameGap,
		now:     time.Now,
	}
}

// Start runs the program on its own goroutine. When the program exits for
// any reason the surface reports a close request.
func (t *Terminal) Start() {
	t.started = true
	go func() {
		defer close(t.done)
		_, t.err = t.program.Run()
		t.model.shared.closed.Store(true)
	}()
}

func (t *Terminal) Present() error {
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.gap {
		return nil
	}
	t.last = now

	cols, rows := t.model.CanvasSize()
	if t.canvas == nil || t.canvas.Width != cols || t.canvas.Height != rows {
		t.canvas = NewCanvas(cols, rows)
	}
	t.canvas.Plot(t.fb.Framebuffer())
	t.send(FrameMsg{Canvas: t.canvas.String()})
	return nil
}

func (t *Terminal) PollCloseSignal() bool { return t.model.CloseRequested() }

// Observe forwards a throughput sample to the side panel.
func (t *Terminal) Observe(s frame.Throughput) { t.send(ThroughputMsg(s)) }

// Close stops the program and restores the terminal.
func (t *Terminal) Close() error {
	if !t.started {
		return nil
	}
	t.program.Quit()
	<-t.done
	return t.err
}

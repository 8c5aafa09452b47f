package viz

import (
	"image"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/gpulife/internal/frame"
)

type staticFramebuffer struct{ img *image.RGBA }

func (f staticFramebuffer) Framebuffer() *image.RGBA { return f.img }

func newTestTerminal() (*Terminal, *[]tea.Msg, *time.Time) {
	var sent []tea.Msg
	now := time.Unix(100, 0)
	term := NewTerminal(staticFramebuffer{image.NewRGBA(image.Rect(0, 0, 16, 16))}, NewModel("cpu", nil))
	term.send = func(m tea.Msg) { sent = append(sent, m) }
	term.now = func() time.Time { return now }
	return term, &sent, &now
}

func TestTerminal_PresentIsThrottled(t *testing.T) {
	term, sent, now := newTestTerminal()

	// Three thirds make exactly one gap, so frames 1 and 4 are sent.
	step := DefaultFrameGap / 3
	if 3*step != DefaultFrameGap {
		t.Fatalf("gap %v is not divisible by 3", DefaultFrameGap)
	}
	for i := 0; i < 5; i++ {
		if err := term.Present(); err != nil {
			t.Fatal(err)
		}
		*now = now.Add(step)
	}
	if len(*sent) != 2 {
		t.Fatalf("sent %d frames, want 2", len(*sent))
	}
	msg, ok := (*sent)[0].(FrameMsg)
	if !ok {
		t.Fatalf("sent %T", (*sent)[0])
	}
	cols, rows := term.model.CanvasSize()
	if len([]rune(msg.Canvas)) != cols*rows+rows-1 {
		t.Errorf("canvas has %d runes for %dx%d", len([]rune(msg.Canvas)), cols, rows)
	}
}

func TestTerminal_ObserveAndClose(t *testing.T) {
	term, sent, _ := newTestTerminal()
	term.Observe(frame.Throughput{FPS: 30})
	if _, ok := (*sent)[0].(ThroughputMsg); !ok || len(*sent) != 1 {
		t.Errorf("unexpected messages %v", *sent)
	}

	if term.PollCloseSignal() {
		t.Error("close requested before any input")
	}
	term.model.shared.closed.Store(true)
	if !term.PollCloseSignal() {
		t.Error("close request not reported")
	}
	if err := term.Close(); err != nil {
		t.Errorf("close of unstarted terminal: %v", err)
	}
}

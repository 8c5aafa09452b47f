package viz

import (
	"fmt"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gpulife/internal/frame"
)

const (
	historyCapacity = 120
	defaultCols     = 60
	defaultRows     = 22
)

// FrameMsg carries a rendered canvas into the program.
type FrameMsg struct{ Canvas string }

// ThroughputMsg carries a driver throughput sample into the program.
type ThroughputMsg frame.Throughput

// shared is the state the driver goroutine and the program goroutine both
// touch.
type shared struct {
	cols, rows atomic.Int32
	closed     atomic.Bool
}

func newShared() *shared {
	s := &shared{}
	s.cols.Store(defaultCols)
	s.rows.Store(defaultRows)
	return s
}

// Model is the Bubble Tea model of the terminal surface.
type Model struct {
	backend   string
	shared    *shared
	logs      *LogPane
	canvas    string
	fps       []float64
	last      frame.Throughput
	samples   int
	width     int
	height    int
	hidePanel bool
}

func NewModel(backend string, logs *LogPane) Model {
	return Model{
		backend: backend,
		shared:  newShared(),
		logs:    logs,
		fps:     make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return nil }

// CloseRequested reports whether the user asked to quit.
func (m Model) CloseRequested() bool { return m.shared.closed.Load() }

// CanvasSize is the braille canvas size, in cells, that fits the terminal.
func (m Model) CanvasSize() (int, int) {
	return int(m.shared.cols.Load()), int(m.shared.rows.Load())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.shared.closed.Store(true)
			return m, tea.Quit
		case "?":
			m.hidePanel = !m.hidePanel
			m.resize()
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
	case FrameMsg:
		m.canvas = msg.Canvas
	case ThroughputMsg:
		m.last = frame.Throughput(msg)
		m.samples++
		m.fps = append(m.fps, msg.FPS)
		if len(m.fps) > historyCapacity {
			m.fps = m.fps[1:]
		}
	}
	return m, nil
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	cols := m.width - 2
	if !m.hidePanel {
		cols -= panelWidth + 3
	}
	rows := m.height - 1
	m.shared.cols.Store(int32(max(cols, 1)))
	m.shared.rows.Store(int32(max(rows, 1)))
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas)
	if m.hidePanel {
		return canvasView
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("GPULIFE") + "\n")
	s.WriteString(labelStyle.Render("Device") + valueStyle.Render(m.backend) + "\n")
	if m.samples == 0 {
		s.WriteString(labelStyle.Render("FPS") + valueStyle.Render("-") + "\n")
	} else {
		s.WriteString(labelStyle.Render("FPS") + valueStyle.Render(fmt.Sprintf("%.1f", m.last.FPS)) + "\n")
		s.WriteString(labelStyle.Render("Generation") + valueStyle.Render(fmt.Sprintf("%d", m.last.Generation)) + "\n")
		s.WriteString(labelStyle.Render("Skipped") + valueStyle.Render(fmt.Sprintf("%d", m.last.Skipped)) + "\n")
	}
	if len(m.fps) > 1 {
		chart := asciigraph.Plot(m.fps, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("FPS"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if m.logs != nil {
		for _, line := range m.logs.Lines() {
			s.WriteString(logStyle.Render(truncate(line, panelWidth-4)) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("Q:Quit ?:Panel"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panelStyle.Render(s.String()))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

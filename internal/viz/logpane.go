package viz

import (
	"strings"
	"sync"
)

// LogPane is an io.Writer keeping the last few lines written to it. The
// terminal surface points the logger at one so diagnostics do not tear the
// alternate screen.
type LogPane struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial string
}

func NewLogPane(limit int) *LogPane {
	if limit <= 0 {
		limit = 1
	}
	return &LogPane{max: limit}
}

func (p *LogPane) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text := p.partial + string(b)
	parts := strings.Split(text, "\n")
	p.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		if line == "" {
			continue
		}
		p.lines = append(p.lines, line)
	}
	if n := len(p.lines); n > p.max {
		p.lines = append([]string(nil), p.lines[n-p.max:]...)
	}
	return len(b), nil
}

// Lines returns a copy of the retained lines, oldest first.
func (p *LogPane) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

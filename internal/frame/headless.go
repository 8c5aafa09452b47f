package frame

// Headless is a surface without a display. It requests close after a fixed
// number of presented frames; zero means never.
type Headless struct {
	limit     int
	presented int
	closed    bool
}

func NewHeadless(frames int) *Headless {
	return &Headless{limit: frames}
}

func (h *Headless) Present() error {
	h.presented++
	return nil
}

func (h *Headless) PollCloseSignal() bool {
	return h.closed || (h.limit > 0 && h.presented >= h.limit)
}

// RequestClose makes the next poll report a close request.
func (h *Headless) RequestClose() { h.closed = true }

func (h *Headless) Presented() int { return h.presented }

func (h *Headless) Close() error { return nil }

type limited struct {
	Surface
	limit     int
	presented int
}

// WithFrameLimit wraps s so that it also requests close after n presented
// frames. n <= 0 returns s unchanged.
func WithFrameLimit(s Surface, n int) Surface {
	if n <= 0 {
		return s
	}
	return &limited{Surface: s, limit: n}
}

func (l *limited) Present() error {
	l.presented++
	return l.Surface.Present()
}

func (l *limited) PollCloseSignal() bool {
	return l.Surface.PollCloseSignal() || l.presented >= l.limit
}

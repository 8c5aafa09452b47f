package frame

import "time"

// MinInterval is the shortest throughput reporting interval.
const MinInterval = time.Second

// Throughput is one periodic performance sample.
type Throughput struct {
	Frames     int
	Elapsed    time.Duration
	FPS        float64
	Generation uint64
	Skipped    int
}

// FrameClock counts frames between throughput samples.
type FrameClock struct {
	interval time.Duration
	now      func() time.Time
	last     time.Time
	frames   int
}

func NewFrameClock(interval time.Duration) *FrameClock {
	if interval < MinInterval {
		interval = MinInterval
	}
	return &FrameClock{interval: interval, now: time.Now}
}

func (c *FrameClock) Interval() time.Duration { return c.interval }

// Start resets the clock to the current instant.
func (c *FrameClock) Start() {
	c.last = c.now()
	c.frames = 0
}

// Tick records a frame and returns a sample once the interval has elapsed.
func (c *FrameClock) Tick() (Throughput, bool) {
	if c.last.IsZero() {
		c.Start()
	}
	c.frames++
	now := c.now()
	elapsed := now.Sub(c.last)
	if elapsed < c.interval {
		return Throughput{}, false
	}
	t := Throughput{
		Frames:  c.frames,
		Elapsed: elapsed,
		FPS:     float64(c.frames) / elapsed.Seconds(),
	}
	c.last = now
	c.frames = 0
	return t, true
}

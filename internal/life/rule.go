// Package life implements the Game of Life rule and the kernels that
// apply it on a compute device.
package life

import "github.com/san-kum/gpulife/internal/compute"

// Cell intensities as stored in device images.
const (
	Dead  uint8 = 0
	Alive uint8 = 255
)

// threshold is the midpoint of the 8-bit range; the GLSL kernel compares
// the normalized value against 0.5.
const threshold = 127

// Point is a cell position.
type Point struct {
	X, Y int
}

var offsets = [8]Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

func IsAlive(v uint8) bool { return v > threshold }

// Next applies the B3/S23 rule to a cell given its live neighbour count.
func Next(self uint8, liveNeighbours int) uint8 {
	if IsAlive(self) {
		if liveNeighbours == 2 || liveNeighbours == 3 {
			return Alive
		}
		return Dead
	}
	if liveNeighbours == 3 {
		return Alive
	}
	return Dead
}

// Wrap maps (x, y) onto a w×h torus.
func Wrap(x, y, w, h int) Point {
	return Point{X: (x%w + w) % w, Y: (y%h + h) % h}
}

// Neighbours returns the eight toroidal neighbours of (x, y).
func Neighbours(x, y, w, h int) [8]Point {
	var n [8]Point
	for i, d := range offsets {
		n[i] = Wrap(x+d.X, y+d.Y, w, h)
	}
	return n
}

// Cell is the per-cell kernel: the next state of (x, y) computed from the
// current image only.
func Cell(src compute.ImageReader, x, y int) uint8 {
	w, h := src.Size()
	live := 0
	for _, p := range Neighbours(x, y, w, h) {
		if IsAlive(src.At(p.X, p.Y)) {
			live++
		}
	}
	return Next(src.At(x, y), live)
}

package viz

import (
	"image"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in sub-pixel coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Plot clears the canvas and samples img onto its dots with nearest
// filtering. A dot is lit when the sampled red channel is above 127, which
// is how live cells come out of the display shader.
func (c *Canvas) Plot(img *image.RGBA) {
	c.Clear()
	if img == nil {
		return
	}
	b := img.Bounds()
	iw, ih := b.Dx(), b.Dy()
	sw, sh := c.Width*2, c.Height*4
	if iw == 0 || ih == 0 || sw == 0 || sh == 0 {
		return
	}
	for sy := 0; sy < sh; sy++ {
		py := b.Min.Y + (2*sy+1)*ih/(2*sh)
		for sx := 0; sx < sw; sx++ {
			px := b.Min.X + (2*sx+1)*iw/(2*sw)
			if img.RGBAAt(px, py).R > 127 {
				c.Set(sx, sy)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

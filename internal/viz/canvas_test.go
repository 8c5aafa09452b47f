package viz

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestCanvas_SetDots(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(1, 3)
	c.Set(2, 1)
	c.Set(-1, 0)
	c.Set(4, 0)

	if got, want := c.Grid[0][0], rune(0x2800|0x1|0x80); got != want {
		t.Errorf("cell 0 = %U, want %U", got, want)
	}
	if got, want := c.Grid[0][1], rune(0x2800|0x2); got != want {
		t.Errorf("cell 1 = %U, want %U", got, want)
	}

	c.Clear()
	if s := c.String(); s != "\u2800\u2800" {
		t.Errorf("cleared canvas = %q", s)
	}
}

func TestCanvas_PlotFullAndEmpty(t *testing.T) {
	tests := []struct {
		name string
		fill color.RGBA
		want rune
	}{
		{"alive", color.RGBA{R: 255, G: 255, B: 255, A: 255}, 0x28ff},
		{"dead", color.RGBA{A: 255}, 0x2800},
		{"clear color", color.RGBA{R: 51, G: 51, B: 51, A: 255}, 0x2800},
	}

	for _, tt := range tests {
		img := image.NewRGBA(image.Rect(0, 0, 40, 40))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = tt.fill.R, tt.fill.G, tt.fill.B, tt.fill.A
		}
		c := NewCanvas(5, 3)
		c.Plot(img)
		for _, row := range c.Grid {
			for _, r := range row {
				if r != tt.want {
					t.Fatalf("%s: got %U, want %U", tt.name, r, tt.want)
				}
			}
		}
	}
}

func TestCanvas_PlotKeepsOrientation(t *testing.T) {
	// Left half lit, right half dark; top row lit, rest dark.
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 && y < 4 {
				img.SetRGBA(x, y, white)
			}
		}
	}

	c := NewCanvas(2, 2)
	c.Plot(img)
	lines := strings.Split(c.String(), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != "\u28ff\u2800" || lines[1] != "\u2800\u2800" {
		t.Errorf("unexpected plot %q", lines)
	}
}

func TestCanvas_PlotNil(t *testing.T) {
	c := NewCanvas(3, 2)
	c.Set(0, 0)
	c.Plot(nil)
	if c.Grid[0][0] != blank {
		t.Error("plotting nil did not clear the canvas")
	}
}

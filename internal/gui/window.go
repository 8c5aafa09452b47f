// Package gui opens the desktop window the simulation is presented in.
//
// The window owns the OpenGL context. The opengl device draws straight into
// its default framebuffer; the cpu device's software framebuffer is
// uploaded to a texture and blitted one texel per pixel. Build with
// -tags "opengl opengl43" to get a 4.3 core context for compute shaders.
package gui

import (
	"fmt"
	"image"
	"image/color"
	"runtime"

	"github.com/charmbracelet/log"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pkg/errors"
	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/frame"
)

var ErrWindow = errors.New("gui: window could not be created")

var colStatus = rl.NewColor(180, 180, 180, 255)

func init() {
	runtime.LockOSThread()
}

type Window struct {
	width, height int
	fb            compute.Framebuffer
	tex           rl.Texture2D
	pixels        []color.RGBA
	status        string
	log           *log.Logger
}

// Open creates a width x height window and makes its context current on
// the calling thread. fb is nil when the device renders into the window
// itself.
func Open(width, height int, title string, fb compute.Framebuffer, logger *log.Logger) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrWindow, "size %dx%d", width, height)
	}
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetConfigFlags(rl.FlagVsyncHint)
	rl.InitWindow(int32(width), int32(height), title)
	if !rl.IsWindowReady() {
		return nil, ErrWindow
	}
	rl.SetTargetFPS(0)
	logger.Debug("window open", "width", width, "height", height)
	return &Window{width: width, height: height, fb: fb, log: logger}, nil
}

func (w *Window) Present() error {
	rl.BeginDrawing()
	if w.fb != nil {
		if img := w.fb.Framebuffer(); img != nil {
			if err := w.upload(img); err != nil {
				rl.EndDrawing()
				return err
			}
			rl.DrawTexture(w.tex, 0, 0, rl.White)
		}
	}
	if w.status != "" {
		rl.DrawText(w.status, 8, 8, 16, colStatus)
	}
	rl.EndDrawing()
	return nil
}

func (w *Window) upload(img *image.RGBA) error {
	if img.Rect.Dx() != w.width || img.Rect.Dy() != w.height {
		return errors.Errorf("gui: framebuffer %v does not match window %dx%d", img.Rect.Size(), w.width, w.height)
	}
	if w.tex.ID == 0 {
		rimg := rl.NewImageFromImage(img)
		w.tex = rl.LoadTextureFromImage(rimg)
		rl.UnloadImage(rimg)
		if w.tex.ID == 0 {
			return errors.New("gui: texture upload failed")
		}
		return nil
	}
	w.pixels = toColors(w.pixels, img)
	rl.UpdateTexture(w.tex, w.pixels)
	return nil
}

// toColors reinterprets the packed RGBA bytes of img as colors, reusing dst
// when it is large enough.
func toColors(dst []color.RGBA, img *image.RGBA) []color.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if cap(dst) < w*h {
		dst = make([]color.RGBA, w*h)
	}
	dst = dst[:w*h]
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			dst[y*w+x] = color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
		}
	}
	return dst
}

func (w *Window) PollCloseSignal() bool {
	return rl.WindowShouldClose() || rl.IsKeyPressed(rl.KeyQ)
}

// Observe shows the latest throughput sample in the window corner.
func (w *Window) Observe(s frame.Throughput) {
	w.status = statusLine(s)
}

func statusLine(s frame.Throughput) string {
	return fmt.Sprintf("%.0f FPS  gen %d", s.FPS, s.Generation)
}

func (w *Window) Close() error {
	if w.tex.ID != 0 {
		rl.UnloadTexture(w.tex)
		w.tex = rl.Texture2D{}
	}
	rl.CloseWindow()
	return nil
}

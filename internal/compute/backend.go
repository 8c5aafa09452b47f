package compute

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// Access describes how a kernel uses a bound image.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
)

func (a Access) String() string {
	if a == ReadOnly {
		return "read-only"
	}
	return "write-only"
}

// Image is a device-resident single channel 8-bit image.
type Image interface {
	Size() (w, h int)
}

// ImageReader is the read view a host kernel receives.
type ImageReader interface {
	Size() (w, h int)
	At(x, y int) uint8
}

// Program is a compiled kernel or shader pair.
type Program interface {
	Name() string
}

// CellKernel is the host form of a compute kernel: one invocation produces
// the value written at (x, y) from the read-only source image.
type CellKernel func(src ImageReader, x, y int) uint8

// ComputeSource describes a compute kernel. GLSL is built by shader devices,
// Cell is executed by the software device. Both must implement the same
// function. The kernel reads image slot 0 and writes image slot 1.
type ComputeSource struct {
	Name      string
	GLSL      string
	LocalSize [2]int
	Cell      CellKernel
}

// ShadeFunc is the host form of a fragment shader sampling one texel.
type ShadeFunc func(sample uint8) color.RGBA

// GraphicsSource describes a full-screen display program.
type GraphicsSource struct {
	Name     string
	Vertex   string
	Fragment string
	Sampler  string
	Shade    ShadeFunc
}

// Backend is the capability set the simulation core depends on.
type Backend interface {
	Name() string
	Available() bool
	// Init binds the device to the current context. It must be called after
	// the window surface exists and before any other method.
	Init() error

	NewImage(w, h int, pixels []uint8) (Image, error)
	ReadImage(img Image, dst []uint8) error
	ReleaseImage(img Image) error

	CompileCompute(src ComputeSource) (Program, error)
	CompileGraphics(src GraphicsSource) (Program, error)

	BindReadImage(slot int, img Image) error
	BindWriteImage(slot int, img Image) error
	Dispatch(p Program, groupsX, groupsY int) error
	Barrier() error

	Viewport(w, h int) error
	DrawFullscreen(p Program, sampled Image) error

	Cleanup()
}

// Framebuffer is implemented by devices that render into host memory.
// Surfaces use it to present the software device's output.
type Framebuffer interface {
	Framebuffer() *image.RGBA
}

// Options tune device construction.
type Options struct {
	Workers int
}

// Names lists the device names accepted by Select.
func Names() []string { return []string{"auto", "cpu", "opengl"} }

// Select returns the named device. "auto" prefers OpenGL when it was
// compiled in and falls back to the CPU device.
func Select(name string, opts Options) (Backend, error) {
	switch name {
	case "", "auto":
		return AutoSelectBackend(opts), nil
	case "cpu":
		return NewCPUBackend(opts.Workers), nil
	case "opengl":
		gl := NewOpenGLBackend()
		if !gl.Available() {
			return nil, errors.Wrapf(ErrUnavailable, "%s (build with -tags opengl)", gl.Name())
		}
		return gl, nil
	default:
		return nil, errors.Errorf("unknown backend: %s", name)
	}
}

func AutoSelectBackend(opts Options) Backend {
	gl := NewOpenGLBackend()
	if gl.Available() {
		return gl
	}
	return NewCPUBackend(opts.Workers)
}

// MaxImageCells bounds the texel count of a single image. It keeps w*h
// and every row-major index inside an int32 on all platforms.
const MaxImageCells = math.MaxInt32

// CheckSize rejects image dimensions that are not positive or whose texel
// count exceeds MaxImageCells.
func CheckSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return errors.Wrapf(ErrImageSize, "%dx%d", w, h)
	}
	if w > MaxImageCells/h {
		return errors.Wrapf(ErrImageSize, "%dx%d exceeds %d cells", w, h, MaxImageCells)
	}
	return nil
}

// GroupCount returns the number of work groups needed to cover n
// invocations with groups of the given size.
func GroupCount(n, local int) int {
	if local <= 0 {
		return 0
	}
	return (n + local - 1) / local
}

// FullscreenVertex returns the clip-space position and texture coordinate
// of synthetic vertex id (0..3) of the full-screen triangle strip. It
// mirrors the vertex shader: uv = (id&1, id>>1), pos = uv*2-1.
func FullscreenVertex(id int) (pos, uv [2]float64) {
	uv = [2]float64{float64(id & 1), float64(id >> 1)}
	pos = [2]float64{uv[0]*2 - 1, uv[1]*2 - 1}
	return pos, uv
}

var (
	_ Backend     = (*CPUBackend)(nil)
	_ Backend     = (*OpenGLBackend)(nil)
	_ Framebuffer = (*CPUBackend)(nil)
)

package compute

import (
	"image"
	"image/color"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ClearColor is the background the display pass clears to before drawing.
var ClearColor = color.RGBA{R: 51, G: 51, B: 51, A: 255}

type CPUBackend struct {
	workers  int
	bindings map[int]binding
	pending  *errgroup.Group
	frame    *image.RGBA
}

type binding struct {
	img    *cpuImage
	access Access
}

type cpuImage struct {
	w, h     int
	pix      []uint8
	released bool
}

func (i *cpuImage) Size() (int, int)      { return i.w, i.h }
func (i *cpuImage) At(x, y int) uint8     { return i.pix[y*i.w+x] }
func (i *cpuImage) set(x, y int, v uint8) { i.pix[y*i.w+x] = v }

type cpuProgram struct {
	name     string
	compute  *ComputeSource
	graphics *GraphicsSource
}

func (p *cpuProgram) Name() string { return p.name }

// NewCPUBackend returns the software device. workers <= 0 uses one
// goroutine per CPU.
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{
		workers:  workers,
		bindings: make(map[int]binding),
	}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Init() error     { return nil }

// Workers reports the number of goroutines a dispatch is spread over.
func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) Cleanup() {
	_ = c.Barrier()
	c.bindings = make(map[int]binding)
	c.frame = nil
}

func (c *CPUBackend) idle(op string) error {
	if c.pending != nil {
		return errors.Wrapf(ErrHazard, "%s while a dispatch is in flight", op)
	}
	return nil
}

func (c *CPUBackend) lookup(img Image) (*cpuImage, error) {
	ci, ok := img.(*cpuImage)
	if !ok || ci == nil {
		return nil, errors.Wrapf(ErrBinding, "image %T does not belong to the cpu device", img)
	}
	if ci.released {
		return nil, errors.Wrap(ErrBinding, "image was released")
	}
	return ci, nil
}

func (c *CPUBackend) NewImage(w, h int, pixels []uint8) (Image, error) {
	if err := CheckSize(w, h); err != nil {
		return nil, err
	}
	if pixels != nil && len(pixels) != w*h {
		return nil, errors.Wrapf(ErrImageSize, "%dx%d image with %d pixels", w, h, len(pixels))
	}
	img := &cpuImage{w: w, h: h, pix: make([]uint8, w*h)}
	copy(img.pix, pixels)
	return img, nil
}

func (c *CPUBackend) ReadImage(img Image, dst []uint8) error {
	if err := c.idle("read image"); err != nil {
		return err
	}
	ci, err := c.lookup(img)
	if err != nil {
		return err
	}
	if len(dst) != len(ci.pix) {
		return errors.Wrapf(ErrImageSize, "read of %dx%d image into %d bytes", ci.w, ci.h, len(dst))
	}
	copy(dst, ci.pix)
	return nil
}

func (c *CPUBackend) ReleaseImage(img Image) error {
	if err := c.idle("release image"); err != nil {
		return err
	}
	ci, err := c.lookup(img)
	if err != nil {
		return err
	}
	for slot, b := range c.bindings {
		if b.img == ci {
			delete(c.bindings, slot)
		}
	}
	ci.released = true
	ci.pix = nil
	return nil
}

func (c *CPUBackend) CompileCompute(src ComputeSource) (Program, error) {
	if src.Cell == nil {
		return nil, errors.Wrapf(ErrCompile, "kernel %q has no host implementation", src.Name)
	}
	if src.LocalSize[0] <= 0 || src.LocalSize[1] <= 0 {
		return nil, errors.Wrapf(ErrCompile, "kernel %q local size %v", src.Name, src.LocalSize)
	}
	s := src
	return &cpuProgram{name: src.Name, compute: &s}, nil
}

func (c *CPUBackend) CompileGraphics(src GraphicsSource) (Program, error) {
	if src.Shade == nil {
		return nil, errors.Wrapf(ErrCompile, "shader %q has no host implementation", src.Name)
	}
	s := src
	return &cpuProgram{name: src.Name, graphics: &s}, nil
}

func (c *CPUBackend) bind(slot int, img Image, access Access) error {
	if err := c.idle("bind image"); err != nil {
		return err
	}
	ci, err := c.lookup(img)
	if err != nil {
		return err
	}
	c.bindings[slot] = binding{img: ci, access: access}
	return nil
}

func (c *CPUBackend) BindReadImage(slot int, img Image) error {
	return c.bind(slot, img, ReadOnly)
}

func (c *CPUBackend) BindWriteImage(slot int, img Image) error {
	return c.bind(slot, img, WriteOnly)
}

func (c *CPUBackend) bound(slot int, access Access) (*cpuImage, error) {
	b, ok := c.bindings[slot]
	if !ok {
		return nil, errors.Wrapf(ErrBinding, "nothing bound to slot %d", slot)
	}
	if b.access != access {
		return nil, errors.Wrapf(ErrBinding, "slot %d is %s, kernel needs %s", slot, b.access, access)
	}
	return b.img, nil
}

// Dispatch starts groupsX*groupsY work groups and returns without waiting
// for them. Groups are spread over the worker goroutines in contiguous
// chunks; Barrier joins them.
func (c *CPUBackend) Dispatch(p Program, groupsX, groupsY int) error {
	if err := c.idle("dispatch"); err != nil {
		return err
	}
	prog, ok := p.(*cpuProgram)
	if !ok || prog == nil || prog.compute == nil {
		return errors.Errorf("compute: dispatch of non-compute program %v", p)
	}
	if groupsX <= 0 || groupsY <= 0 {
		return errors.Errorf("compute: dispatch of %dx%d groups", groupsX, groupsY)
	}
	src, err := c.bound(0, ReadOnly)
	if err != nil {
		return err
	}
	dst, err := c.bound(1, WriteOnly)
	if err != nil {
		return err
	}
	if src == dst {
		return errors.Wrap(ErrBinding, "read and write slots alias the same image")
	}
	if src.w != dst.w || src.h != dst.h {
		return errors.Wrapf(ErrImageSize, "read %dx%d, write %dx%d", src.w, src.h, dst.w, dst.h)
	}

	kernel := prog.compute.Cell
	lx, ly := prog.compute.LocalSize[0], prog.compute.LocalSize[1]
	total := groupsX * groupsY
	chunk := (total + c.workers - 1) / c.workers

	g := new(errgroup.Group)
	for start := 0; start < total; start += chunk {
		end := start + chunk
		if end > total {
			end = total
		}
		g.Go(func() error {
			for gi := start; gi < end; gi++ {
				ox := (gi % groupsX) * lx
				oy := (gi / groupsX) * ly
				for y := oy; y < oy+ly && y < src.h; y++ {
					for x := ox; x < ox+lx && x < src.w; x++ {
						dst.set(x, y, kernel(src, x, y))
					}
				}
			}
			return nil
		})
	}
	c.pending = g
	return nil
}

// Barrier waits for the in-flight dispatch. All of its writes are visible
// to every access issued after Barrier returns.
func (c *CPUBackend) Barrier() error {
	if c.pending == nil {
		return nil
	}
	err := c.pending.Wait()
	c.pending = nil
	return err
}

func (c *CPUBackend) Viewport(w, h int) error {
	if w <= 0 || h <= 0 {
		return errors.Wrapf(ErrImageSize, "viewport %dx%d", w, h)
	}
	c.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	return nil
}

func (c *CPUBackend) Framebuffer() *image.RGBA { return c.frame }

// DrawFullscreen rasterizes the two triangles of the full-screen strip into
// the framebuffer. Window coordinates follow the GL convention with the
// origin in the bottom-left corner; the framebuffer stores rows top-down.
func (c *CPUBackend) DrawFullscreen(p Program, sampled Image) error {
	if err := c.idle("draw"); err != nil {
		return err
	}
	prog, ok := p.(*cpuProgram)
	if !ok || prog == nil || prog.graphics == nil {
		return errors.Errorf("compute: draw with non-graphics program %v", p)
	}
	if c.frame == nil {
		return errors.New("compute: draw without viewport")
	}
	tex, err := c.lookup(sampled)
	if err != nil {
		return err
	}

	fb := c.frame
	w, h := fb.Rect.Dx(), fb.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fb.SetRGBA(x, y, ClearColor)
		}
	}

	var verts [4][2][2]float64
	for id := range verts {
		pos, uv := FullscreenVertex(id)
		verts[id] = [2][2]float64{pos, uv}
	}
	shade := prog.graphics.Shade
	for t := 0; t < 2; t++ {
		a, b, d := verts[t], verts[t+1], verts[t+2]
		area := edge(a[0], b[0], d[0])
		if area == 0 {
			continue
		}
		for wy := 0; wy < h; wy++ {
			ny := (float64(wy)+0.5)/float64(h)*2 - 1
			for wx := 0; wx < w; wx++ {
				nx := (float64(wx)+0.5)/float64(w)*2 - 1
				pt := [2]float64{nx, ny}
				w0 := edge(b[0], d[0], pt) / area
				w1 := edge(d[0], a[0], pt) / area
				w2 := edge(a[0], b[0], pt) / area
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				u := w0*a[1][0] + w1*b[1][0] + w2*d[1][0]
				v := w0*a[1][1] + w1*b[1][1] + w2*d[1][1]
				fb.SetRGBA(wx, h-1-wy, shade(sampleNearest(tex, u, v)))
			}
		}
	}
	return nil
}

func edge(a, b, p [2]float64) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

func sampleNearest(img *cpuImage, u, v float64) uint8 {
	x := clampTexel(int(u*float64(img.w)), img.w)
	y := clampTexel(int(v*float64(img.h)), img.h)
	return img.At(x, y)
}

func clampTexel(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

//go:build opengl

package compute

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/pkg/errors"
)

type OpenGLBackend struct {
	VAO         uint32
	Version     string
	Initialized bool
	programs    []uint32
}

type glImage struct {
	tex  uint32
	w, h int
}

func (i *glImage) Size() (int, int) { return i.w, i.h }

type glProgram struct {
	id      uint32
	name    string
	sampler int32
}

func (p *glProgram) Name() string { return p.name }

func NewOpenGLBackend() *OpenGLBackend {
	return &OpenGLBackend{}
}

func (c *OpenGLBackend) Name() string {
	if c.Version != "" {
		return "opengl (" + c.Version + ")"
	}
	return "opengl"
}

func (c *OpenGLBackend) Available() bool { return true }

// Init loads the GL entry points from the current context. The window
// surface must have made its 4.3 core context current on this thread.
func (c *OpenGLBackend) Init() error {
	if err := gl.Init(); err != nil {
		return errors.Wrapf(ErrUnavailable, "failed to init opengl: %v", err)
	}
	c.Version = gl.GoStr(gl.GetString(gl.VERSION))
	gl.GenVertexArrays(1, &c.VAO)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ClearColor(float32(ClearColor.R)/255, float32(ClearColor.G)/255, float32(ClearColor.B)/255, 1)
	c.Initialized = true
	return glError("init")
}

func (c *OpenGLBackend) Cleanup() {
	if !c.Initialized {
		return
	}
	for _, p := range c.programs {
		gl.DeleteProgram(p)
	}
	c.programs = nil
	gl.DeleteVertexArrays(1, &c.VAO)
	c.Initialized = false
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return errors.Errorf("opengl: %s: error 0x%04x", op, code)
	}
	return nil
}

func asGLImage(img Image) (*glImage, error) {
	gi, ok := img.(*glImage)
	if !ok || gi == nil || gi.tex == 0 {
		return nil, errors.Wrapf(ErrBinding, "image %T does not belong to the opengl device", img)
	}
	return gi, nil
}

func (c *OpenGLBackend) NewImage(w, h int, pixels []uint8) (Image, error) {
	if err := CheckSize(w, h); err != nil {
		return nil, err
	}
	if pixels != nil && len(pixels) != w*h {
		return nil, errors.Wrapf(ErrImageSize, "%dx%d image with %d pixels", w, h, len(pixels))
	}
	img := &glImage{w: w, h: h}
	gl.GenTextures(1, &img.tex)
	gl.BindTexture(gl.TEXTURE_2D, img.tex)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, gl.R8, int32(w), int32(h))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	if pixels != nil {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h), gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	}
	if err := glError("texture allocation"); err != nil {
		gl.DeleteTextures(1, &img.tex)
		return nil, err
	}
	return img, nil
}

func (c *OpenGLBackend) ReadImage(img Image, dst []uint8) error {
	gi, err := asGLImage(img)
	if err != nil {
		return err
	}
	if len(dst) != gi.w*gi.h {
		return errors.Wrapf(ErrImageSize, "read of %dx%d image into %d bytes", gi.w, gi.h, len(dst))
	}
	gl.BindTexture(gl.TEXTURE_2D, gi.tex)
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	return glError("texture readback")
}

func (c *OpenGLBackend) ReleaseImage(img Image) error {
	gi, err := asGLImage(img)
	if err != nil {
		return err
	}
	gl.DeleteTextures(1, &gi.tex)
	gi.tex = 0
	return nil
}

func (c *OpenGLBackend) CompileCompute(src ComputeSource) (Program, error) {
	shader, err := compileShader(gl.COMPUTE_SHADER, src.GLSL)
	if err != nil {
		return nil, errors.Wrapf(err, "kernel %q", src.Name)
	}
	program, err := linkProgram(shader)
	if err != nil {
		return nil, errors.Wrapf(err, "kernel %q", src.Name)
	}
	c.programs = append(c.programs, program)
	return &glProgram{id: program, name: src.Name, sampler: -1}, nil
}

func (c *OpenGLBackend) CompileGraphics(src GraphicsSource) (Program, error) {
	vShader, err := compileShader(gl.VERTEX_SHADER, src.Vertex)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %q vertex stage", src.Name)
	}
	fShader, err := compileShader(gl.FRAGMENT_SHADER, src.Fragment)
	if err != nil {
		gl.DeleteShader(vShader)
		return nil, errors.Wrapf(err, "shader %q fragment stage", src.Name)
	}
	program, err := linkProgram(vShader, fShader)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %q", src.Name)
	}
	c.programs = append(c.programs, program)

	p := &glProgram{id: program, name: src.Name, sampler: -1}
	if src.Sampler != "" {
		p.sampler = gl.GetUniformLocation(program, gl.Str(src.Sampler+"\x00"))
		if p.sampler != -1 {
			gl.UseProgram(program)
			gl.Uniform1i(p.sampler, 0)
		}
	}
	return p, nil
}

func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, errors.Wrap(ErrCompile, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func linkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)
	for _, s := range shaders {
		gl.DeleteShader(s)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, errors.Wrap(ErrCompile, "link: "+strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func (c *OpenGLBackend) BindReadImage(slot int, img Image) error {
	gi, err := asGLImage(img)
	if err != nil {
		return err
	}
	gl.BindImageTexture(uint32(slot), gi.tex, 0, false, 0, gl.READ_ONLY, gl.R8)
	return glError(fmt.Sprintf("bind read image %d", slot))
}

func (c *OpenGLBackend) BindWriteImage(slot int, img Image) error {
	gi, err := asGLImage(img)
	if err != nil {
		return err
	}
	gl.BindImageTexture(uint32(slot), gi.tex, 0, false, 0, gl.WRITE_ONLY, gl.R8)
	return glError(fmt.Sprintf("bind write image %d", slot))
}

func (c *OpenGLBackend) Dispatch(p Program, groupsX, groupsY int) error {
	prog, ok := p.(*glProgram)
	if !ok || prog == nil {
		return errors.Errorf("opengl: dispatch of foreign program %v", p)
	}
	gl.UseProgram(prog.id)
	gl.DispatchCompute(uint32(groupsX), uint32(groupsY), 1)
	return glError("dispatch")
}

// Barrier makes image stores of the last dispatch visible to later image
// loads and to texture sampling in the display pass.
func (c *OpenGLBackend) Barrier() error {
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)
	return glError("memory barrier")
}

func (c *OpenGLBackend) Viewport(w, h int) error {
	if w <= 0 || h <= 0 {
		return errors.Wrapf(ErrImageSize, "viewport %dx%d", w, h)
	}
	gl.Viewport(0, 0, int32(w), int32(h))
	return glError("viewport")
}

func (c *OpenGLBackend) DrawFullscreen(p Program, sampled Image) error {
	prog, ok := p.(*glProgram)
	if !ok || prog == nil {
		return errors.Errorf("opengl: draw with foreign program %v", p)
	}
	tex, err := asGLImage(sampled)
	if err != nil {
		return err
	}
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(prog.id)
	gl.BindVertexArray(c.VAO)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex.tex)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
	return glError("draw")
}

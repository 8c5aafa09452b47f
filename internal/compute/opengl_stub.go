//go:build !opengl

package compute

// OpenGLBackend is the placeholder used when the binary is built without
// the opengl tag. It is never available.
type OpenGLBackend struct{}

func NewOpenGLBackend() *OpenGLBackend {
	return &OpenGLBackend{}
}

func (c *OpenGLBackend) Name() string    { return "opengl (not available)" }
func (c *OpenGLBackend) Available() bool { return false }
func (c *OpenGLBackend) Init() error     { return ErrUnavailable }
func (c *OpenGLBackend) Cleanup()        {}

func (c *OpenGLBackend) NewImage(int, int, []uint8) (Image, error)       { return nil, ErrUnavailable }
func (c *OpenGLBackend) ReadImage(Image, []uint8) error                  { return ErrUnavailable }
func (c *OpenGLBackend) ReleaseImage(Image) error                        { return ErrUnavailable }
func (c *OpenGLBackend) CompileCompute(ComputeSource) (Program, error)   { return nil, ErrUnavailable }
func (c *OpenGLBackend) CompileGraphics(GraphicsSource) (Program, error) { return nil, ErrUnavailable }
func (c *OpenGLBackend) BindReadImage(int, Image) error                  { return ErrUnavailable }
func (c *OpenGLBackend) BindWriteImage(int, Image) error                 { return ErrUnavailable }
func (c *OpenGLBackend) Dispatch(Program, int, int) error                { return ErrUnavailable }
func (c *OpenGLBackend) Barrier() error                                  { return ErrUnavailable }
func (c *OpenGLBackend) Viewport(int, int) error                         { return ErrUnavailable }
func (c *OpenGLBackend) DrawFullscreen(Program, Image) error             { return ErrUnavailable }

package compute

import "errors"

// Device errors.
var (
	// ErrUnavailable indicates the requested device is not compiled in or has no context.
	ErrUnavailable = errors.New("compute: device unavailable")

	// ErrHazard indicates an image access issued while a dispatch was not yet barriered.
	ErrHazard = errors.New("compute: image access before barrier")

	// ErrBinding indicates a missing, foreign, released or aliased image binding.
	ErrBinding = errors.New("compute: invalid image binding")

	// ErrCompile indicates a kernel or shader failed to build.
	ErrCompile = errors.New("compute: program build failed")

	// ErrImageSize indicates image dimensions or pixel buffers that do not agree.
	ErrImageSize = errors.New("compute: invalid image size")
)

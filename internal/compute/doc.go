// Package compute provides the parallel devices the simulation runs on.
//
// A [Backend] exposes the small set of capabilities the simulation needs:
// image allocation, kernel compilation, image binding, dispatch, a
// visibility barrier and a full-screen draw. Two devices implement it:
//
//   - CPU: a software device that runs kernels on goroutines
//   - OpenGL: GLSL compute and fragment shaders on an OpenGL 4.3 context
//
// # Ordering
//
// Dispatch may return before the kernel has finished. Every image access
// that follows a dispatch must be preceded by [Backend.Barrier]:
//
//	b.BindReadImage(0, cur)
//	b.BindWriteImage(1, next)
//	b.Dispatch(prog, gx, gy)
//	b.Barrier()
//
// The CPU device reports a missing barrier as [ErrHazard].
//
// Build with OpenGL support:
//
//	go build -tags opengl ./cmd/gpulife
package compute

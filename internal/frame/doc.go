// Package frame drives the per-frame loop of the visualization.
//
// Each frame runs, in order and on the calling goroutine:
//
//	step (dispatch + barrier + swap) -> draw(current) -> present -> poll
//
// Nothing overlaps: a draw never sees a generation that is still being
// written, and the next step never starts before the frame was presented.
// The loop leaves the Running state only between frames, when the surface
// reports a close request or the context is cancelled.
package frame

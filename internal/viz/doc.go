// Package viz presents the simulation in a terminal.
//
// [Terminal] is a frame surface backed by a Bubble Tea program running on
// its own goroutine. Each presented frame downsamples the software
// framebuffer into a braille [Canvas]; a side panel shows the FPS history,
// the latest throughput sample and the most recent log lines.
//
// # Key Bindings
//
//	q, Esc, Ctrl+C - request close
//	?              - toggle the side panel
package viz

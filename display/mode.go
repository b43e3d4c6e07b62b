// Package display turns a rasterized pixel buffer into ANSI terminal
// output, per §7: half-block cells at twice vertical pixel density, plus
// an overlay HUD.
package display

import "splatterm/rasterizer"

// Mode renders one frame's worth of a rasterized buffer as terminal output
// bytes, at a given terminal size.
type Mode interface {
	// Render returns the buffer encoded as terminal cells, given the terminal
	// size in columns/rows and the supersample factor used to produce buf.
	Render(buf *rasterizer.Buffer, cols, rows, supersample int) ([]byte, error)
	// Name identifies the mode for the HUD.
	Name() string
}

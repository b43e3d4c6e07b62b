package display

import (
	"bytes"
	"fmt"

	"splatterm/rasterizer"
)

// cellColor is a pair of background/foreground 8-bit RGB triplets for one
// terminal cell rendered as a half-block glyph.
type cellColor struct {
	bg, fg [3]uint8
}

// Halfblock renders a supersampled buffer as "▀" glyphs, doubling vertical
// pixel density over a plain one-pixel-per-cell mode: each cell's foreground
// (the glyph's upper half) is the averaged top half of its source block, its
// background the averaged bottom half.
type Halfblock struct {
	useTruecolor bool
}

// NewHalfblock returns a Halfblock renderer. useTruecolor selects 24-bit
// ANSI color escapes over the 256-color palette fallback.
func NewHalfblock(useTruecolor bool) *Halfblock {
	return &Halfblock{useTruecolor: useTruecolor}
}

func (h *Halfblock) Name() string { return "Halfblock" }

func (h *Halfblock) Render(buf *rasterizer.Buffer, cols, rows, ss int) ([]byte, error) {
	if ss < 1 {
		ss = 1
	}
	cells := downsampleToTerminal(buf, cols, rows, ss)

	var out bytes.Buffer
	out.WriteString("\x1b[H") // home cursor; caller issues the HUD rows separately
	for row := 0; row < rows; row++ {
		var lastBG, lastFG [3]uint8
		first := true
		for col := 0; col < cols; col++ {
			c := cells[row*cols+col]
			if first || c.bg != lastBG {
				writeColorEscape(&out, h.useTruecolor, true, c.bg)
			}
			if first || c.fg != lastFG {
				writeColorEscape(&out, h.useTruecolor, false, c.fg)
			}
			out.WriteString("▀") // ▀
			lastBG, lastFG, first = c.bg, c.fg, false
		}
		out.WriteString("\x1b[0m\r\n")
	}
	return out.Bytes(), nil
}

// downsampleToTerminal box-averages a supersampled buffer into one
// background/foreground color pair per terminal cell: each cell covers a
// ss-wide by 2*ss-tall block of source pixels, split top/bottom.
func downsampleToTerminal(buf *rasterizer.Buffer, termCols, termRows, ss int) []cellColor {
	out := make([]cellColor, termCols*termRows)
	ssWidth, ssHeight := buf.Width, buf.Height

	for row := 0; row < termRows; row++ {
		for col := 0; col < termCols; col++ {
			x0 := col * ss
			x1 := minInt((col+1)*ss, ssWidth)
			topY0 := row * 2 * ss
			topY1 := minInt(row*2*ss+ss, ssHeight)
			botY0 := minInt(row*2*ss+ss, ssHeight)
			botY1 := minInt((row+1)*2*ss, ssHeight)

			out[row*termCols+col] = cellColor{
				bg: averageRegion(buf, x0, x1, botY0, botY1),
				fg: averageRegion(buf, x0, x1, topY0, topY1),
			}
		}
	}
	return out
}

func averageRegion(buf *rasterizer.Buffer, x0, x1, y0, y1 int) [3]uint8 {
	var r, g, b, count uint32
	for y := y0; y < y1; y++ {
		row := y * buf.Width
		for x := x0; x < x1; x++ {
			c := buf.Color[row+x]
			r += uint32(toByte(c.R))
			g += uint32(toByte(c.G))
			b += uint32(toByte(c.B))
			count++
		}
	}
	if count == 0 {
		return [3]uint8{0, 0, 0}
	}
	return [3]uint8{uint8(r / count), uint8(g / count), uint8(b / count)}
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func writeColorEscape(out *bytes.Buffer, truecolor, background bool, c [3]uint8) {
	layer := 38
	if background {
		layer = 48
	}
	if truecolor {
		fmt.Fprintf(out, "\x1b[%d;2;%d;%d;%dm", layer, c[0], c[1], c[2])
		return
	}
	fmt.Fprintf(out, "\x1b[%d;5;%dm", layer, nearest256(c))
}

// nearest256 maps an RGB triplet to the 6x6x6 color cube of the ANSI
// 256-color palette (codes 16-231).
func nearest256(c [3]uint8) int {
	quant := func(v uint8) int {
		return int(v) * 5 / 255
	}
	r, g, b := quant(c[0]), quant(c[1]), quant(c[2])
	return 16 + 36*r + 6*g + b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

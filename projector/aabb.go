package projector

import "splatterm/splat"

// ScreenAABB is a splat's axis-aligned bounding box in screen space: the 2D
// case the rasterizer and GPU tile binner both need, answering "which
// disjoint regions does this splat's footprint touch".
type ScreenAABB struct {
	MinX, MinY, MaxX, MaxY float32
}

// BoundsOf returns the screen AABB of a projected splat.
func BoundsOf(p splat.Projected) ScreenAABB {
	return ScreenAABB{
		MinX: p.ScreenX - p.RadiusX,
		MaxX: p.ScreenX + p.RadiusX,
		MinY: p.ScreenY - p.RadiusY,
		MaxY: p.ScreenY + p.RadiusY,
	}
}

// ClampRowsToBand returns the inclusive pixel-row range [minY, maxY] of box
// clipped to [bandStart, bandEnd], and ok=false if the clip is empty. Used
// by both the rasterizer's band pre-binning pass and its per-band blend
// loop.
func (b ScreenAABB) ClampRowsToBand(bandStart, bandEnd, height int) (minY, maxY int, ok bool) {
	if int(ceilf(b.MaxY)) < bandStart {
		return 0, 0, false
	}
	minY = clampInt(int(floorf(b.MinY)), bandStart, height-1)
	maxY = clampInt(int(ceilf(b.MaxY)), bandStart, bandEnd)
	if minY > maxY {
		return 0, 0, false
	}
	return minY, maxY, true
}

// ClampCols returns the inclusive pixel-column range [minX, maxX] of box
// clipped to [0, width).
func (b ScreenAABB) ClampCols(width int) (minX, maxX int, ok bool) {
	minX = clampInt(int(floorf(b.MinX)), 0, width-1)
	maxX = clampInt(int(ceilf(b.MaxX)), 0, width-1)
	if minX > maxX {
		return 0, 0, false
	}
	return minX, maxX, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorf(v float32) float32 {
	i := float32(int(v))
	if v < 0 && i != v {
		return i - 1
	}
	return i
}

func ceilf(v float32) float32 {
	i := float32(int(v))
	if v > 0 && i != v {
		return i + 1
	}
	return i
}

package rasterizer

import (
	"testing"

	"splatterm/splat"
)

func TestRasterizeSinglePaintsCenterBrighterThanEdge(t *testing.T) {
	buf := NewBuffer(32, 32)
	r := New(nil)
	defer r.Close()

	sorted := []splat.Projected{
		{
			ScreenX: 16, ScreenY: 16,
			Depth: 1, RadiusX: 10, RadiusY: 10,
			Color:   splat.Color{R: 1, G: 0, B: 0},
			Opacity: 1,
			InvCovA: 1, InvCovB: 0, InvCovC: 1,
		},
	}
	r.Rasterize(sorted, buf)

	center := buf.Alpha[16*32+16]
	edge := buf.Alpha[16*32+25]
	if center <= edge {
		t.Fatalf("expected center alpha > edge alpha, got center=%v edge=%v", center, edge)
	}
	if center <= 0 {
		t.Fatalf("expected nonzero alpha at center, got %v", center)
	}
}

func TestRasterizeFrontToBackStopsAtSaturation(t *testing.T) {
	buf := NewBuffer(8, 8)
	r := New(nil)
	defer r.Close()

	// Two fully-opaque, fully-overlapping splats at different depths, both
	// centred on pixel (4,4)'s centre. There the nearer one (lower depth,
	// first in sorted order) has Gaussian weight 1 and saturates the pixel
	// on its own, so the farther one must not alter it.
	sorted := []splat.Projected{
		{ScreenX: 4.5, ScreenY: 4.5, Depth: 1, RadiusX: 5, RadiusY: 5,
			Color: splat.Color{R: 1, G: 0, B: 0}, Opacity: 1,
			InvCovA: 0.1, InvCovB: 0, InvCovC: 0.1},
		{ScreenX: 4.5, ScreenY: 4.5, Depth: 2, RadiusX: 5, RadiusY: 5,
			Color: splat.Color{R: 0, G: 1, B: 0}, Opacity: 1,
			InvCovA: 0.1, InvCovB: 0, InvCovC: 0.1},
	}
	r.Rasterize(sorted, buf)

	idx := 4*8 + 4
	c := buf.Color[idx]
	if c.R <= c.G {
		t.Fatalf("expected the nearer red splat to dominate once saturated, got %+v", c)
	}
	if c.G != 0 {
		t.Fatalf("expected the farther green splat to be skipped at the saturated pixel, got %+v", c)
	}
}

func TestRasterizeEmptyInputLeavesBufferClear(t *testing.T) {
	buf := NewBuffer(4, 4)
	r := New(nil)
	defer r.Close()

	r.Rasterize(nil, buf)
	for i, a := range buf.Alpha {
		if a != 0 {
			t.Fatalf("expected zero alpha at %d, got %v", i, a)
		}
	}
}

func TestBufferResizeNoopOnSameDimensions(t *testing.T) {
	buf := NewBuffer(4, 4)
	buf.Color[0] = splat.Color{R: 1}
	buf.Resize(4, 4)
	if buf.Color[0].R != 1 {
		t.Fatalf("expected Resize to no-op on identical dimensions, buffer was cleared")
	}
}

func TestBufferResizeReallocatesOnChange(t *testing.T) {
	buf := NewBuffer(4, 4)
	buf.Resize(8, 2)
	if len(buf.Color) != 16 || buf.Width != 8 || buf.Height != 2 {
		t.Fatalf("expected resized buffer to be 8x2, got %dx%d len=%d", buf.Width, buf.Height, len(buf.Color))
	}
}

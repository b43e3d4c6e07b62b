// Package depthsort orders a ProjectedSplat slice by ascending view-space
// depth, the contract the rasterizer's front-to-back blend relies on.
package depthsort

import (
	"sort"

	"splatterm/splat"
)

// ByDepth performs an unstable sort by ascending depth; NaN compares equal
// to everything, matching Rust's partial_cmp().unwrap_or(Equal) fallback in
// the reference sort.
func ByDepth(projected []splat.Projected) {
	sort.Slice(projected, func(i, j int) bool {
		return less(projected[i].Depth, projected[j].Depth)
	})
}

func less(a, b float32) bool {
	if a != a || b != b { // either is NaN
		return false
	}
	return a < b
}

// TileBits, DepthBits and TieBits are the bit widths of the packed GPU sort
// key (§3/§4.4): 10 bits tile id, 18 bits quantized depth, 4 bits
// tie-breaker. The CPU sort (ByDepth) does not use these; PackKey below
// reproduces the GPU path's bit layout and is exercised by this package's
// tests.
const (
	TileBits  = 10
	DepthBits = 18
	TieBits   = 4

	MaxTiles    = 1 << TileBits
	DepthLevels = 1 << DepthBits
	TieMask     = 1<<TieBits - 1
)

// PackKey builds the deterministic 32-bit sort key
// (tile_id:10 | quantized_depth:18 | original_tiebreaker:4), bit-for-bit
// the layout the GPU emit kernel's packKey produces. The CPU back-end sorts
// by depth alone (ByDepth) and does not build these keys.
func PackKey(tileID uint32, depth, near, far float32, originalIndex uint32) uint32 {
	quantized := QuantizeDepth(depth, near, far)
	tie := originalIndex & TieMask
	return (tileID&(MaxTiles-1))<<(DepthBits+TieBits) | quantized<<TieBits | tie
}

// QuantizeDepth linearly maps depth clamped to [near, far] into
// [0, 2^DepthBits), per the Open Question decision favoring the simpler
// linear mapping absent evidence of a 1/z remap in the original source.
func QuantizeDepth(depth, near, far float32) uint32 {
	if far <= near {
		return 0
	}
	d := depth
	if d < near {
		d = near
	}
	if d > far {
		d = far
	}
	t := (d - near) / (far - near)
	level := uint32(t * float32(DepthLevels-1))
	if level >= DepthLevels {
		level = DepthLevels - 1
	}
	return level
}

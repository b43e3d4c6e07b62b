package depthsort

import (
	"math"
	"testing"

	"splatterm/splat"
)

func TestByDepthAscending(t *testing.T) {
	projected := []splat.Projected{
		{Depth: 5}, {Depth: 1}, {Depth: 3}, {Depth: 2},
	}
	ByDepth(projected)
	for i := 1; i < len(projected); i++ {
		if projected[i-1].Depth > projected[i].Depth {
			t.Fatalf("not sorted at %d: %v", i, projected)
		}
	}
}

func TestByDepthHandlesNaN(t *testing.T) {
	nan := float32(math.NaN())
	projected := []splat.Projected{
		{Depth: 2}, {Depth: nan}, {Depth: 1},
	}
	// Must not panic or infinite-loop; NaN compares as "equal" everywhere.
	ByDepth(projected)
	if len(projected) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(projected))
	}
}

func TestPackKeyOrdersByTileThenDepth(t *testing.T) {
	kLowTile := PackKey(0, 5, 0, 10, 0)
	kHighTile := PackKey(1, 0, 0, 10, 0)
	if kLowTile >= kHighTile {
		t.Fatalf("expected tile id to dominate ordering: %d >= %d", kLowTile, kHighTile)
	}

	kNear := PackKey(0, 1, 0, 10, 0)
	kFar := PackKey(0, 9, 0, 10, 0)
	if kNear >= kFar {
		t.Fatalf("expected nearer depth to sort first within a tile: %d >= %d", kNear, kFar)
	}
}

func TestQuantizeDepthClampsToRange(t *testing.T) {
	if got := QuantizeDepth(-5, 0, 10); got != 0 {
		t.Errorf("expected 0 for below-range depth, got %d", got)
	}
	if got := QuantizeDepth(50, 0, 10); got != DepthLevels-1 {
		t.Errorf("expected max level for above-range depth, got %d", got)
	}
}

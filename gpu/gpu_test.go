package gpu

import "testing"

// These tests cover the pure host-side math the GPU back-end's state
// machine relies on; anything that touches a GL context requires a live
// driver and is exercised by the demo binary, not unit tests.

func TestTileConfigForRoundsUpAndClampsToOne(t *testing.T) {
	cfg := tileConfigFor(33, 16)
	if cfg.TileCountX != 3 {
		t.Errorf("expected 3 tiles wide for 33px/16, got %d", cfg.TileCountX)
	}
	if cfg.TileCountY != 1 {
		t.Errorf("expected 1 tile tall for 16px/16, got %d", cfg.TileCountY)
	}

	cfg = tileConfigFor(1, 1)
	if cfg.TileCountX != 1 || cfg.TileCountY != 1 {
		t.Errorf("expected at least one tile per axis, got %dx%d", cfg.TileCountX, cfg.TileCountY)
	}
}

func TestNumTilesMultipliesAxes(t *testing.T) {
	cfg := TileConfig{TileCountX: 4, TileCountY: 3}
	if got := cfg.NumTiles(); got != 12 {
		t.Errorf("NumTiles() = %d, want 12", got)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 1024: 1024, 1025: 2048}
	for in, want := range cases {
		if got := nextPowerOfTwo(in); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRequiredBlockSumElementsRecursesUntilSingleBlock(t *testing.T) {
	if got := requiredBlockSumElements(0); got != 1 {
		t.Errorf("requiredBlockSumElements(0) = %d, want 1", got)
	}
	if got := requiredBlockSumElements(256); got != 1 {
		t.Errorf("requiredBlockSumElements(256) = %d, want 1 (exactly one workgroup)", got)
	}
	// 257 elements need 2 blocks at level 0, then 1 block to scan those 2.
	if got := requiredBlockSumElements(257); got != 3 {
		t.Errorf("requiredBlockSumElements(257) = %d, want 3", got)
	}
}

func TestDivCeilHelpers(t *testing.T) {
	if got := divCeilInt(10, 3); got != 4 {
		t.Errorf("divCeilInt(10,3) = %d, want 4", got)
	}
	if got := divCeilU32(10, 3); got != 4 {
		t.Errorf("divCeilU32(10,3) = %d, want 4", got)
	}
	if got := divCeilInt(9, 3); got != 3 {
		t.Errorf("divCeilInt(9,3) = %d, want 3", got)
	}
}

func TestRenderErrorShouldDisableGPU(t *testing.T) {
	cases := []struct {
		err  *RenderError
		want bool
	}{
		{&RenderError{Kind: KindDisabled}, true},
		{&RenderError{Kind: KindTimeout}, true},
		{&RenderError{Kind: KindCommandFailed}, true},
		{&RenderError{Kind: KindOverflowDeferred}, false},
		{&RenderError{Kind: KindOther}, false},
	}
	for _, c := range cases {
		if got := c.err.ShouldDisableGPU(); got != c.want {
			t.Errorf("ShouldDisableGPU() for %v = %v, want %v", c.err.Kind, got, c.want)
		}
	}
}

func TestRenderErrorMessages(t *testing.T) {
	if got := (&RenderError{Kind: KindTimeout, Stage: "sort_rasterize", TimeoutMs: 500}).Error(); got == "" {
		t.Error("expected non-empty timeout message")
	}
	if got := errOverflowDeferred(128, 64).Error(); got == "" {
		t.Error("expected non-empty overflow message")
	}
}

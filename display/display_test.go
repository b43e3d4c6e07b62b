package display

import (
	"strings"
	"testing"

	"splatterm/rasterizer"
)

func TestHalfblockRenderProducesOneLinePerRow(t *testing.T) {
	buf := rasterizer.NewBuffer(4, 8)
	h := NewHalfblock(true)
	out, err := h.Render(buf, 2, 4, 2)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Count(string(out), "\r\n")
	if lines != 4 {
		t.Fatalf("expected 4 terminal rows, got %d newlines in %q", lines, out)
	}
}

func TestRenderHUDPadsAndTruncates(t *testing.T) {
	s := Stats{TermCols: 10, TermRows: 5}
	out := RenderHUD(s, "hi")
	if !strings.Contains(out, "hi") {
		t.Fatalf("expected control hints present, got %q", out)
	}
	if !strings.Contains(out, "mhi        \x1b[0m") {
		t.Fatalf("expected control hints padded to 10 columns, got %q", out)
	}
	if !strings.Contains(out, "mFPS:  0.0 \x1b[0m") {
		t.Fatalf("expected status line truncated to 10 columns, got %q", out)
	}
}

func TestTruncateAndPadExactWidth(t *testing.T) {
	got := truncateAndPad("hello", 5)
	if got != "hello" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
	got = truncateAndPad("hello world", 5)
	if got != "hello" {
		t.Fatalf("expected truncation to 5 runes, got %q", got)
	}
	got = truncateAndPad("hi", 5)
	if got != "hi   " {
		t.Fatalf("expected padded to 5, got %q", got)
	}
}

func TestNearest256MapsWhiteAndBlack(t *testing.T) {
	if got := nearest256([3]uint8{0, 0, 0}); got != 16 {
		t.Errorf("expected black to map to 16, got %d", got)
	}
	if got := nearest256([3]uint8{255, 255, 255}); got != 16+36*5+6*5+5 {
		t.Errorf("expected white to map to the cube's max corner, got %d", got)
	}
}

package pipeline

import (
	"testing"

	"splatterm/rasterizer"
)

func TestUnpackFramebufferDecodesChannels(t *testing.T) {
	buf := rasterizer.NewBuffer(2, 1)
	pixels := []uint32{
		0xAA<<24 | 0x33<<16 | 0x22<<8 | 0x11,
		0xFF<<24 | 0xFF<<16 | 0x00<<8 | 0x80,
	}

	unpackFramebuffer(pixels, buf)

	if got, want := buf.Color[0].R, float32(0x11)/255; got != want {
		t.Errorf("pixel0 R = %v, want %v", got, want)
	}
	if got, want := buf.Color[0].G, float32(0x22)/255; got != want {
		t.Errorf("pixel0 G = %v, want %v", got, want)
	}
	if got, want := buf.Color[0].B, float32(0x33)/255; got != want {
		t.Errorf("pixel0 B = %v, want %v", got, want)
	}
	if got, want := buf.Alpha[0], float32(0xAA)/255; got != want {
		t.Errorf("pixel0 A = %v, want %v", got, want)
	}
	if got, want := buf.Color[1].R, float32(0x80)/255; got != want {
		t.Errorf("pixel1 R = %v, want %v", got, want)
	}
	if got, want := buf.Alpha[1], float32(1.0); got != want {
		t.Errorf("pixel1 A = %v, want %v", got, want)
	}
}

func TestUnpackFramebufferClampsToBufferLength(t *testing.T) {
	buf := rasterizer.NewBuffer(1, 1)
	pixels := []uint32{0, 0, 0} // longer than the 1-pixel buffer

	// Must not panic despite the mismatched lengths.
	unpackFramebuffer(pixels, buf)

	if len(buf.Color) != 1 {
		t.Fatalf("buffer length changed: got %d, want 1", len(buf.Color))
	}
}

package splatio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeVec3LE(buf *bytes.Buffer, x, y, z float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(x))
	buf.Write(b[:])
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(y))
	buf.Write(b[:])
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(z))
	buf.Write(b[:])
}

func buildDotSplatRecord(pos, scale [3]float32, color [3]byte, opacity byte, rot [4]byte) []byte {
	var buf bytes.Buffer
	writeVec3LE(&buf, pos[0], pos[1], pos[2])
	writeVec3LE(&buf, scale[0], scale[1], scale[2])
	buf.Write(color[:])
	buf.WriteByte(opacity)
	buf.Write(rot[:])
	return buf.Bytes()
}

func TestLoadDotSplatRoundTrip(t *testing.T) {
	rec := buildDotSplatRecord(
		[3]float32{1, 2, 3},
		[3]float32{0.1, 0.2, 0.3},
		[3]byte{255, 0, 128},
		200,
		[4]byte{191, 127, 0, 255}, // maps to roughly (0.498, 0, -1, 1)
	)
	path := filepath.Join(t.TempDir(), "scene.splat")
	if err := os.WriteFile(path, rec, 0o644); err != nil {
		t.Fatal(err)
	}

	scene, err := LoadDotSplat(path)
	if err != nil {
		t.Fatalf("LoadDotSplat: %v", err)
	}
	if len(scene.Splats) != 1 {
		t.Fatalf("expected 1 splat, got %d", len(scene.Splats))
	}
	s := scene.Splats[0]
	if s.Position.X != 1 || s.Position.Y != 2 || s.Position.Z != 3 {
		t.Errorf("unexpected position: %+v", s.Position)
	}
	if s.Color.R != 1 || s.Color.G != 0 {
		t.Errorf("unexpected color: %+v", s.Color)
	}
}

func TestLoadDotSplatRejectsBadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.splat")
	if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDotSplat(path); err == nil {
		t.Fatal("expected error for undersized file")
	}
}

func TestLoadDotSplatRejectsNonMultipleSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.splat")
	if err := os.WriteFile(path, make([]byte, 40), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDotSplat(path); err == nil {
		t.Fatal("expected error for non-multiple-of-32 file")
	}
}

func buildMinimalPLY(vertexCount int) []byte {
	header := fmt.Sprintf(`ply
format binary_little_endian 1.0
element vertex %d
property float x
property float y
property float z
property float red
property float green
property float blue
end_header
`, vertexCount)

	var buf bytes.Buffer
	buf.WriteString(header)
	for i := 0; i < vertexCount; i++ {
		writeVec3LE(&buf, float32(i), float32(i)*2, float32(i)*3)
		writeVec3LE(&buf, 10, 20, 30)
	}
	return buf.Bytes()
}

func TestLoadPLYBasicVertexAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.ply")
	if err := os.WriteFile(path, buildMinimalPLY(3), 0o644); err != nil {
		t.Fatal(err)
	}

	scene, err := LoadPLY(path)
	if err != nil {
		t.Fatalf("LoadPLY: %v", err)
	}
	if len(scene.Splats) != 3 {
		t.Fatalf("expected 3 splats, got %d", len(scene.Splats))
	}
	if scene.Splats[1].Position.X != 1 || scene.Splats[1].Position.Y != 2 {
		t.Errorf("unexpected position for vertex 1: %+v", scene.Splats[1].Position)
	}
	want := float32(10.0 / 255.0)
	if diff := scene.Splats[0].Color.R - want; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("expected R=%v, got %v", want, scene.Splats[0].Color.R)
	}
}

func TestLoadPLYRejectsASCIIFormat(t *testing.T) {
	header := "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\n"
	path := filepath.Join(t.TempDir(), "ascii.ply")
	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPLY(path); err == nil {
		t.Fatal("expected error for ASCII-format PLY")
	}
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.PLY")
	if err := os.WriteFile(path, buildMinimalPLY(1), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "scene.obj")); err == nil {
		t.Fatal("expected error for unrecognized extension")
	}
}

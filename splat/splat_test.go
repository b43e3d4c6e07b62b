package splat

import (
	"testing"

	"splatterm/internal/mathutil"
)

func TestNewClampsScaleBelowFloor(t *testing.T) {
	s := New(mathutil.Vec3Zero, Color{R: 1}, 1, mathutil.Vec3{X: 0, Y: -1, Z: MinScale / 2}, mathutil.QuaternionIdentity())
	if s.Scale.X != MinScale {
		t.Errorf("Scale.X = %v, want clamped to MinScale", s.Scale.X)
	}
	if s.Scale.Y != MinScale {
		t.Errorf("Scale.Y = %v, want clamped to MinScale (negative input)", s.Scale.Y)
	}
	if s.Scale.Z != MinScale {
		t.Errorf("Scale.Z = %v, want clamped to MinScale", s.Scale.Z)
	}
}

func TestNewClampsOpacityTo01(t *testing.T) {
	s := New(mathutil.Vec3Zero, Color{}, 1.5, mathutil.Vec3{X: 1, Y: 1, Z: 1}, mathutil.QuaternionIdentity())
	if s.Opacity != 1 {
		t.Errorf("Opacity = %v, want clamped to 1", s.Opacity)
	}
	s = New(mathutil.Vec3Zero, Color{}, -0.5, mathutil.Vec3{X: 1, Y: 1, Z: 1}, mathutil.QuaternionIdentity())
	if s.Opacity != 0 {
		t.Errorf("Opacity = %v, want clamped to 0", s.Opacity)
	}
}

func TestNewDegenerateRotationFallsBackToIdentity(t *testing.T) {
	s := New(mathutil.Vec3Zero, Color{}, 1, mathutil.Vec3{X: 1, Y: 1, Z: 1}, mathutil.Quaternion{})
	want := mathutil.QuaternionIdentity()
	if s.Rotation != want {
		t.Errorf("Rotation = %+v, want identity %+v for a near-zero input quaternion", s.Rotation, want)
	}
}

func TestNewNormalizesNonUnitRotation(t *testing.T) {
	s := New(mathutil.Vec3Zero, Color{}, 1, mathutil.Vec3{X: 1, Y: 1, Z: 1}, mathutil.Quaternion{X: 0, Y: 0, Z: 0, W: 2})
	lengthSqr := s.Rotation.X*s.Rotation.X + s.Rotation.Y*s.Rotation.Y + s.Rotation.Z*s.Rotation.Z + s.Rotation.W*s.Rotation.W
	if delta := lengthSqr - 1; delta > 1e-5 || delta < -1e-5 {
		t.Errorf("Rotation length^2 = %v, want 1", lengthSqr)
	}
}

func TestFlipYMirrorsPositionAndRotation(t *testing.T) {
	scene := &Scene{Splats: []Splat{
		New(mathutil.Vec3{X: 1, Y: 2, Z: 3}, Color{}, 1, mathutil.Vec3{X: 1, Y: 1, Z: 1}, mathutil.Quaternion{X: 0, Y: 0.5, Z: 0, W: 0.8660254}),
	}}
	before := scene.Splats[0].Rotation
	scene.FlipY()
	got := scene.Splats[0]
	if got.Position.Y != -2 {
		t.Errorf("Position.Y = %v, want -2", got.Position.Y)
	}
	if got.Position.X != 1 || got.Position.Z != 3 {
		t.Errorf("FlipY must leave X and Z untouched, got %+v", got.Position)
	}
	if got.Rotation.X != before.X || got.Rotation.Y != -before.Y || got.Rotation.Z != before.Z || got.Rotation.W != -before.W {
		t.Errorf("FlipY must negate the rotation's Y and W only, got %+v from %+v", got.Rotation, before)
	}
}

func TestFlipZMirrorsPositionAndRotation(t *testing.T) {
	scene := &Scene{Splats: []Splat{
		New(mathutil.Vec3{X: 1, Y: 2, Z: 3}, Color{}, 1, mathutil.Vec3{X: 1, Y: 1, Z: 1}, mathutil.QuaternionIdentity()),
	}}
	before := scene.Splats[0].Rotation
	scene.FlipZ()
	got := scene.Splats[0]
	if got.Position.Z != -3 {
		t.Errorf("Position.Z = %v, want -3", got.Position.Z)
	}
	if got.Position.X != 1 || got.Position.Y != 2 {
		t.Errorf("FlipZ must leave X and Y untouched, got %+v", got.Position)
	}
	if got.Rotation.X != before.X || got.Rotation.Y != before.Y || got.Rotation.Z != -before.Z || got.Rotation.W != -before.W {
		t.Errorf("FlipZ must negate the rotation's Z and W only, got %+v from %+v", got.Rotation, before)
	}
}

package camera

import (
	"math"
	"testing"

	"splatterm/internal/mathutil"
)

func TestNewCameraLooksDownNegativeYawAxis(t *testing.T) {
	c := New(mathutil.Vec3{X: 0, Y: 0, Z: 5}, -float32(math.Pi/2), 0)

	if math.Abs(float64(c.Forward.X)) > 1e-4 {
		t.Errorf("Forward.X: expected ~0, got %v", c.Forward.X)
	}
	if c.Forward.Z >= 0 {
		t.Errorf("Forward.Z: expected negative (looking toward origin), got %v", c.Forward.Z)
	}
}

func TestWorldToViewOriginOnAxis(t *testing.T) {
	c := New(mathutil.Vec3{X: 0, Y: 0, Z: 5}, 0, 0)
	c.LookAt(mathutil.Vec3Zero)

	v := c.WorldToView(mathutil.Vec3Zero)
	if math.Abs(float64(v.X)) > 1e-3 || math.Abs(float64(v.Y)) > 1e-3 {
		t.Errorf("expected origin on-axis, got (%v, %v, %v)", v.X, v.Y, v.Z)
	}
	if v.Z <= 0 {
		t.Errorf("expected positive depth looking at origin, got %v", v.Z)
	}
}

func TestFocalLengthsAspect(t *testing.T) {
	c := New(mathutil.Vec3Zero, 0, 0)
	fx, fy := c.FocalLengths(200, 100)
	if fy <= 0 || fx <= 0 {
		t.Fatalf("expected positive focal lengths, got fx=%v fy=%v", fx, fy)
	}
	if math.Abs(float64(fx/fy-2.0)) > 1e-3 {
		t.Errorf("expected fx/fy to track aspect ratio 2.0, got %v", fx/fy)
	}
}

func TestControllerAutoOrbitKeepsHeight(t *testing.T) {
	c := New(mathutil.Vec3{X: 3, Y: 1.5, Z: 0}, 0, 0)
	ctl := NewController(c)
	ctl.AutoOrbit = true
	ctl.SyncOrbitFromCamera()

	for i := 0; i < 30; i++ {
		ctl.Update(1.0 / 60.0)
	}

	if math.Abs(float64(c.Position.Y-1.5)) > 1e-4 {
		t.Errorf("expected orbit height preserved, got %v", c.Position.Y)
	}
	radius := math.Sqrt(float64(c.Position.X*c.Position.X + c.Position.Z*c.Position.Z))
	if math.Abs(radius-3.0) > 1e-3 {
		t.Errorf("expected orbit radius preserved, got %v", radius)
	}
}

// Package camera implements the first-person/orbital camera controller the
// pipeline treats as an external collaborator: it need only produce a
// position, a right-handed orthonormal basis, and a vertical FOV.
package camera

import (
	"math"

	"splatterm/internal/mathutil"
)

// Camera is a per-frame pose: position plus orthonormal basis (right, up,
// forward) and vertical FOV. Degenerate bases (yaw/pitch combinations that
// would make right nearly zero-length) fall back to a canonical right axis.
type Camera struct {
	Position mathutil.Vec3
	Right    mathutil.Vec3
	Up       mathutil.Vec3
	Forward  mathutil.Vec3

	Yaw, Pitch float32
	FOV        float32
	Near, Far  float32
}

// New builds a Camera at position looking in the direction implied by yaw
// (around world Y) and pitch, matching the convention the projector's
// Jacobian assumes: forward = (cos(yaw)cos(pitch), sin(pitch), sin(yaw)cos(pitch)).
func New(position mathutil.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{
		Position: position,
		Yaw:      yaw,
		Pitch:    pitch,
		FOV:      float32(math.Pi) / 3,
		Near:     0.1,
		Far:      1000,
	}
	c.updateVectors()
	return c
}

func (c *Camera) updateVectors() {
	forward := mathutil.Vec3{
		X: cosf(c.Yaw) * cosf(c.Pitch),
		Y: sinf(c.Pitch),
		Z: sinf(c.Yaw) * cosf(c.Pitch),
	}.Normalize()

	worldUp := mathutil.Vec3Up
	right := forward.Cross(worldUp)
	if right.LengthSqr() < 1e-6 {
		right = mathutil.Vec3Right
	} else {
		right = right.Normalize()
	}
	up := right.Cross(forward).Normalize()

	c.Forward = forward
	c.Right = right
	c.Up = up
}

// WorldToView transforms a world point into the camera's view space, the
// exact operation §4.1 of the pipeline spec performs per splat.
func (c *Camera) WorldToView(point mathutil.Vec3) mathutil.Vec3 {
	rel := point.Sub(c.Position)
	return mathutil.Vec3{X: rel.Dot(c.Right), Y: rel.Dot(c.Up), Z: rel.Dot(c.Forward)}
}

// FocalLengths returns (fx, fy) for the given screen size, per §4.1.
func (c *Camera) FocalLengths(width, height int) (fx, fy float32) {
	h := maxf(float32(height), 1)
	w := maxf(float32(width), 1)
	tanHalf := maxf(tanf(c.FOV*0.5), 1e-6)
	fy = h / (2 * tanHalf)
	fx = fy * (w / h)
	return fx, fy
}

// MoveForward, MoveRight and MoveUp translate the camera along its own
// forward/right axes or the world up axis.
func (c *Camera) MoveForward(distance float32) { c.Position = c.Position.Add(c.Forward.Mul(distance)) }
func (c *Camera) MoveRight(distance float32)   { c.Position = c.Position.Add(c.Right.Mul(distance)) }
func (c *Camera) MoveUp(distance float32) {
	c.Position = c.Position.Add(mathutil.Vec3Up.Mul(distance))
}

// AdjustYaw and AdjustPitch apply look-delta input, clamping pitch to avoid
// gimbal flip.
func (c *Camera) AdjustYaw(delta float32) {
	c.Yaw += delta
	c.updateVectors()
}

func (c *Camera) AdjustPitch(delta float32) {
	c.Pitch = clampf(c.Pitch+delta, -1.5, 1.5)
	c.updateVectors()
}

// LookAt points the camera at target, recomputing yaw/pitch from the
// direction vector.
func (c *Camera) LookAt(target mathutil.Vec3) {
	toTarget := target.Sub(c.Position)
	if toTarget.LengthSqr() < 1e-8 {
		return
	}
	toTarget = toTarget.Normalize()
	c.Yaw = atan2f(toTarget.Z, toTarget.X)
	c.Pitch = asinf(clampf(toTarget.Y, -1, 1))
	c.updateVectors()
}

// Controller drives a Camera from held-key state and look deltas, and can
// additionally auto-orbit a target at a fixed radius and height.
type Controller struct {
	Cam *Camera

	MoveSpeed float32
	LookSpeed float32

	AutoOrbit   bool
	OrbitRadius float32
	OrbitAngle  float32
	OrbitHeight float32
}

// NewController returns a controller for cam with sane default speeds.
func NewController(cam *Camera) *Controller {
	return &Controller{Cam: cam, MoveSpeed: 3.0, LookSpeed: 1.5}
}

// SyncOrbitFromCamera recomputes the orbit radius/angle/height from the
// camera's current position, so toggling auto-orbit on doesn't jump the view.
func (ctl *Controller) SyncOrbitFromCamera() {
	p := ctl.Cam.Position
	radiusXZ := maxf(sqrtf(p.X*p.X+p.Z*p.Z), 0.1)
	ctl.OrbitRadius = radiusXZ
	ctl.OrbitAngle = atan2f(p.Z, p.X)
	ctl.OrbitHeight = p.Y
}

// Update advances auto-orbit motion by dt seconds; held-key movement is
// applied by the caller (inputthread.ApplyHeldMovement) after Update, as
// the frame loop owns key-state bookkeeping (inputthread.State).
func (ctl *Controller) Update(dt float32) {
	if !ctl.AutoOrbit {
		return
	}
	orbitSpeed := 0.9 * ctl.MoveSpeed
	ctl.OrbitAngle += orbitSpeed * dt
	ctl.Cam.Position.X = ctl.OrbitRadius * cosf(ctl.OrbitAngle)
	ctl.Cam.Position.Z = ctl.OrbitRadius * sinf(ctl.OrbitAngle)
	ctl.Cam.Position.Y = ctl.OrbitHeight
	ctl.Cam.LookAt(mathutil.Vec3Zero)
}

func cosf(x float32) float32      { return float32(math.Cos(float64(x))) }
func sinf(x float32) float32      { return float32(math.Sin(float64(x))) }
func tanf(x float32) float32      { return float32(math.Tan(float64(x))) }
func atan2f(y, x float32) float32 { return float32(math.Atan2(float64(y), float64(x))) }
func asinf(x float32) float32     { return float32(math.Asin(float64(x))) }
func sqrtf(x float32) float32     { return float32(math.Sqrt(float64(x))) }

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

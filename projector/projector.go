// Package projector turns a Scene plus a Camera into the dense, filtered
// ProjectedSplat array the sorter and rasterizer consume, per frame.
package projector

import (
	"math"

	"splatterm/camera"
	"splatterm/internal/mathutil"
	"splatterm/internal/parallel"
	"splatterm/splat"
)

const broadMargin = 120.0

// Projector holds the worker pool used to fan the per-splat projection pass
// across cores; one Projector is created per back-end session and reused
// frame to frame.
type Projector struct {
	pool *parallel.Pool
}

// New returns a Projector backed by pool. Passing nil creates a
// GOMAXPROCS-sized pool of its own.
func New(pool *parallel.Pool) *Projector {
	if pool == nil {
		pool = parallel.New(0)
	}
	return &Projector{pool: pool}
}

// Close closes the projector's worker pool, including a pool that was passed
// to New; Pool.Close is idempotent, so closing a shared pool again is safe.
func (p *Projector) Close() { p.pool.Close() }

// ProjectAndCull runs §4.1 of the pipeline over every splat in scene,
// writing surviving records into out (which is truncated and reused, never
// reallocated unless capacity is insufficient) and returning the slice of
// the ones that survived. Order is preserved modulo the dropped entries.
func (p *Projector) ProjectAndCull(splats []splat.Splat, cam *camera.Camera, width, height int, out []splat.Projected) []splat.Projected {
	n := len(splats)
	if n == 0 {
		return out[:0]
	}

	results := make([]*splat.Projected, n)
	fx, fy := cam.FocalLengths(width, height)
	halfW, halfH := float32(width)*0.5, float32(height)*0.5
	sw, sh := float32(width), float32(height)

	p.pool.ExecuteRange(n, func(i int) {
		results[i] = projectOne(splats[i], uint32(i), cam, fx, fy, halfW, halfH, sw, sh)
	})

	out = out[:0]
	for i, r := range results {
		if r != nil {
			r.OriginalIndex = uint32(i)
			out = append(out, *r)
		}
	}
	return out
}

func projectOne(s splat.Splat, index uint32, cam *camera.Camera, fx, fy, halfW, halfH, sw, sh float32) *splat.Projected {
	viewPos := cam.WorldToView(s.Position)
	if viewPos.Z < cam.Near || viewPos.Z > cam.Far {
		return nil
	}

	invZ := 1.0 / maxf(viewPos.Z, 1e-5)
	screenX := halfW + viewPos.X*fx*invZ
	screenY := halfH - viewPos.Y*fy*invZ
	if !isFinite(screenX) || !isFinite(screenY) {
		return nil
	}
	if screenX < -broadMargin || screenX > sw+broadMargin || screenY < -broadMargin || screenY > sh+broadMargin {
		return nil
	}

	cov3D := compute3DCovariance(s.Scale, s.Rotation)
	covA, covB, covC := projectCovarianceTo2D(cov3D, cam, viewPos, fx, fy)
	if covA <= 0 || covC <= 0 {
		return nil
	}

	radiusX, radiusY := compute2DExtent(covA, covB, covC)
	if radiusX < splat.MinSplatRadius || radiusY < splat.MinSplatRadius {
		return nil
	}
	if screenX+radiusX < 0 || screenX-radiusX > sw || screenY+radiusY < 0 || screenY-radiusY > sh {
		return nil
	}

	invA, invB, invC, ok := invert2x2(covA, covB, covC)
	if !ok {
		return nil
	}

	return &splat.Projected{
		ScreenX: screenX, ScreenY: screenY,
		Depth:         viewPos.Z,
		RadiusX:       radiusX,
		RadiusY:       radiusY,
		Color:         s.Color,
		Opacity:       s.Opacity,
		InvCovA:       invA,
		InvCovB:       invB,
		InvCovC:       invC,
		OriginalIndex: index,
	}
}

// compute3DCovariance builds Sigma3 = R * diag(scale^2) * R^T per §4.1.3.
func compute3DCovariance(scale mathutil.Vec3, rotation mathutil.Quaternion) mathutil.Mat3 {
	r := mathutil.Mat3FromQuaternion(rotation)
	sx := maxf(scale.X, splat.MinScale)
	sy := maxf(scale.Y, splat.MinScale)
	sz := maxf(scale.Z, splat.MinScale)
	d := mathutil.Mat3Diag(mathutil.Vec3{X: sx * sx, Y: sy * sy, Z: sz * sz})
	return r.Mul(d).Mul(r.Transpose())
}

// projectCovarianceTo2D rotates Sigma3 into view space and projects it
// through the perspective Jacobian J, per §4.1.4-5.
func projectCovarianceTo2D(cov3D mathutil.Mat3, cam *camera.Camera, viewPoint mathutil.Vec3, fx, fy float32) (a, b, c float32) {
	viewRot := mathutil.Mat3FromRows(cam.Right, cam.Up, cam.Forward)
	covView := viewRot.Mul(cov3D).Mul(viewRot.Transpose())

	z := maxf(viewPoint.Z, 1e-4)
	invZ := 1.0 / z
	invZ2 := invZ * invZ

	jac := [2][3]float32{
		{fx * invZ, 0, -fx * viewPoint.X * invZ2},
		{0, fy * invZ, -fy * viewPoint.Y * invZ2},
	}

	var jCov [2][3]float32
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			jCov[row][col] = jac[row][0]*covView[0][col] + jac[row][1]*covView[1][col] + jac[row][2]*covView[2][col]
		}
	}

	covA := jCov[0][0]*jac[0][0] + jCov[0][1]*jac[0][1] + jCov[0][2]*jac[0][2]
	covB := jCov[0][0]*jac[1][0] + jCov[0][1]*jac[1][1] + jCov[0][2]*jac[1][2]
	covC := jCov[1][0]*jac[1][0] + jCov[1][1]*jac[1][1] + jCov[1][2]*jac[1][2]

	return covA + splat.CovarianceEpsilon, covB, covC + splat.CovarianceEpsilon
}

// compute2DExtent returns the 4-sigma screen-space radius from the larger
// eigenvalue of the 2x2 covariance, per §4.1.7.
func compute2DExtent(a, b, c float32) (radiusX, radiusY float32) {
	trace := a + c
	det := a*c - b*b
	disc := maxf(trace*trace-4*det, 0)
	lambda1 := 0.5 * (trace + sqrtf(disc))
	extent := float32(splat.SigmaCutoff) * sqrtf(maxf(lambda1, 0))
	return extent, extent
}

// invert2x2 returns the inverse covariance (c/det, -b/det, a/det), per §4.1.8.
func invert2x2(a, b, c float32) (invA, invB, invC float32, ok bool) {
	det := a*c - b*b
	if absf(det) < splat.DeterminantFloor {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det
	return c * invDet, -b * invDet, a * invDet, true
}

// EvaluateGaussian computes the per-pixel Gaussian weight for §4.3/§4.4's
// rasterization inner loop, shared by the CPU and (conceptually) GPU paths.
func EvaluateGaussian(dx, dy, invA, invB, invC float32) float32 {
	q := dx*dx*invA + 2*dx*dy*invB + dy*dy*invC
	if q > 2*splat.SigmaCutoff*splat.SigmaCutoff {
		return 0
	}
	return float32(math.Exp(float64(-0.5 * q)))
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sqrtf(v float32) float32 { return float32(math.Sqrt(float64(v))) }

func isFinite(v float32) bool {
	return !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v))
}

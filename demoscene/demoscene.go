// Package demoscene procedurally generates a splat cloud for --demo mode,
// when no scene file is given on the command line.
package demoscene

import (
	"math"
	"math/rand"

	"splatterm/internal/mathutil"
	"splatterm/splat"
)

// Counts for the two generators that make up the default demo scene: a
// torus knot traced in colored splats plus four sphere clusters scattered
// around it, sized to stay comfortably inside the default camera's view
// frustum at z=5.
const (
	TorusKnotCount     = 30000
	SphereClusterCount = 15000
)

// Generate builds the default demo scene: a torus knot plus four colored
// sphere clusters, deterministic given seed.
func Generate(seed int64) *splat.Scene {
	rng := rand.New(rand.NewSource(seed))
	splats := make([]splat.Splat, 0, TorusKnotCount+SphereClusterCount)
	splats = append(splats, generateTorusKnot(TorusKnotCount, rng)...)
	splats = append(splats, generateSphereClusters(SphereClusterCount, rng)...)
	return &splat.Scene{Splats: splats}
}

func generateTorusKnot(count int, rng *rand.Rand) []splat.Splat {
	const (
		p     = 2.0
		q     = 3.0
		major = 1.4
		minor = 0.38
	)

	out := make([]splat.Splat, 0, count)
	for i := 0; i < count; i++ {
		t := float32(i) / float32(maxInt(count, 1)) * tau * 2

		// Laid out in the XZ plane (Y up); a camera at the origin's height
		// looking down -Z sees the loop edge-on.
		position := mathutil.Vec3{
			X: (major + minor*cosf(q*t)) * cosf(p*t),
			Y: minor * sinf(q*t),
			Z: (major + minor*cosf(q*t)) * sinf(p*t),
		}
		jitter := mathutil.Vec3{
			X: randRange(rng, -0.04, 0.04),
			Y: randRange(rng, -0.04, 0.04),
			Z: randRange(rng, -0.04, 0.04),
		}

		hue := (sinf(q*t)*0.5 + 0.5) * 360
		color := hsvToRGB(hue, 0.80, 0.95)

		scale := randRange(rng, 0.018, 0.042)
		out = appendSplat(out, position.Add(jitter), color,
			randRange(rng, 0.68, 0.95),
			mathutil.Vec3{X: scale, Y: scale * randRange(rng, 0.9, 1.2), Z: scale})
	}
	return out
}

type clusterCenter struct {
	center mathutil.Vec3
	color  splat.Color
}

func generateSphereClusters(count int, rng *rand.Rand) []splat.Splat {
	centers := []clusterCenter{
		{mathutil.Vec3{X: 1.8, Y: 0.3, Z: 0.4}, byteColor(255, 120, 80)},
		{mathutil.Vec3{X: -1.6, Y: -0.2, Z: 0.8}, byteColor(100, 210, 255)},
		{mathutil.Vec3{X: 0.3, Y: 1.2, Z: -1.6}, byteColor(160, 255, 130)},
		{mathutil.Vec3{X: -0.5, Y: -1.0, Z: -1.4}, byteColor(255, 220, 90)},
	}

	out := make([]splat.Splat, 0, count)
	for i := 0; i < count; i++ {
		c := centers[i%len(centers)]

		dir := randomUnitSphereDirection(rng)
		radius := cbrtf(rng.Float32()) * randRange(rng, 0.5, 1.4)

		jitter := mathutil.Vec3{X: randRange(rng, -0.03, 0.03), Y: randRange(rng, -0.03, 0.03), Z: randRange(rng, -0.03, 0.03)}
		position := c.center.Add(dir.Mul(radius)).Add(jitter)

		color := splat.Color{
			R: clamp01(c.color.R + randRange(rng, -25.0/255, 25.0/255)),
			G: clamp01(c.color.G + randRange(rng, -25.0/255, 25.0/255)),
			B: clamp01(c.color.B + randRange(rng, -25.0/255, 25.0/255)),
		}

		scale := randRange(rng, 0.02, 0.06)
		out = appendSplat(out, position, color,
			randRange(rng, 0.60, 0.95),
			mathutil.Vec3{X: scale, Y: scale * randRange(rng, 0.8, 1.3), Z: scale})
	}
	return out
}

func appendSplat(out []splat.Splat, position mathutil.Vec3, color splat.Color, opacity float32, scale mathutil.Vec3) []splat.Splat {
	return append(out, splat.New(position, color, opacity, scale, mathutil.QuaternionIdentity()))
}

// randomUnitSphereDirection returns a uniformly-distributed point on the
// unit sphere.
func randomUnitSphereDirection(rng *rand.Rand) mathutil.Vec3 {
	z := randRange(rng, -1, 1)
	theta := rng.Float32() * tau
	r := sqrtf(maxf(1-z*z, 0))
	return mathutil.Vec3{X: r * cosf(theta), Y: z, Z: r * sinf(theta)}
}

func byteColor(r, g, b float32) splat.Color {
	return splat.Color{R: r / 255, G: g / 255, B: b / 255}
}

// hsvToRGB converts hue in degrees [0,360) and saturation/value in [0,1] to
// a linear RGB triplet in [0,1].
func hsvToRGB(h, s, v float32) splat.Color {
	c := v * s
	hp := h / 60
	x := c * (1 - absf(modf(hp, 2)-1))
	var r, g, b float32
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := v - c
	return splat.Color{R: clamp01(r + m), G: clamp01(g + m), B: clamp01(b + m)}
}

const tau = 2 * math.Pi

func randRange(rng *rand.Rand, lo, hi float32) float32 {
	return lo + rng.Float32()*(hi-lo)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
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

func modf(v, m float32) float32 {
	r := float32(math.Mod(float64(v), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

func cosf(v float32) float32  { return float32(math.Cos(float64(v))) }
func sinf(v float32) float32  { return float32(math.Sin(float64(v))) }
func sqrtf(v float32) float32 { return float32(math.Sqrt(float64(v))) }
func cbrtf(v float32) float32 { return float32(math.Cbrt(float64(v))) }

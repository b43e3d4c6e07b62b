// Package splatio loads scene files in the two supported on-disk formats,
// .splat (fixed 32-byte binary records) and .ply (ASCII header, binary
// little-endian body), per §6.
package splatio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"splatterm/internal/mathutil"
	"splatterm/splat"
)

const dotSplatRecordSize = 32

// LoadDotSplat parses a legacy .splat file: a flat sequence of 32-byte
// records (position, scale, color, opacity, rotation), little-endian.
func LoadDotSplat(path string) (*splat.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("splatio: failed to read %q: %w", path, err)
	}
	if len(data) < dotSplatRecordSize {
		return nil, fmt.Errorf("splatio: %q too small to be a .splat file", path)
	}
	if len(data)%dotSplatRecordSize != 0 {
		return nil, fmt.Errorf("splatio: %q size %d is not a multiple of %d bytes", path, len(data), dotSplatRecordSize)
	}

	count := len(data) / dotSplatRecordSize
	scene := &splat.Scene{Splats: make([]splat.Splat, 0, count)}

	for i := 0; i < count; i++ {
		rec := data[i*dotSplatRecordSize : (i+1)*dotSplatRecordSize]

		position := readVec3LE(rec[0:12])
		scaleRaw := readVec3LE(rec[12:24])
		colorBytes := rec[24:27]
		opacityByte := rec[27]
		rotBytes := rec[28:32]

		color := splat.Color{
			R: float32(colorBytes[0]) / 255,
			G: float32(colorBytes[1]) / 255,
			B: float32(colorBytes[2]) / 255,
		}
		opacity := clamp01(float32(opacityByte) / 255)

		rotation := mathutil.Quaternion{
			X: float32(rotBytes[0])/127.5 - 1,
			Y: float32(rotBytes[1])/127.5 - 1,
			Z: float32(rotBytes[2])/127.5 - 1,
			W: float32(rotBytes[3])/127.5 - 1,
		}

		scale := mathutil.Vec3{
			X: decodeScaleValue(scaleRaw.X),
			Y: decodeScaleValue(scaleRaw.Y),
			Z: decodeScaleValue(scaleRaw.Z),
		}

		scene.Splats = append(scene.Splats, splat.New(position, color, opacity, scale, rotation))
	}

	return scene, nil
}

// decodeScaleValue handles the format's two scale encodings: positive
// values are the linear scale directly, non-positive values are a legacy
// log-scale that must be exponentiated.
func decodeScaleValue(v float32) float32 {
	if v > 0 {
		return v
	}
	return float32(math.Max(math.Exp(float64(v)), float64(splat.MinScale)))
}

func readVec3LE(b []byte) mathutil.Vec3 {
	return mathutil.Vec3{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}
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

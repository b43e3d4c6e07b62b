package splatio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"splatterm/internal/mathutil"
	"splatterm/splat"
)

type plyType int

const (
	plyChar plyType = iota
	plyUChar
	plyShort
	plyUShort
	plyInt
	plyUInt
	plyFloat
	plyDouble
)

func parsePlyType(name string) (plyType, bool) {
	switch name {
	case "char", "int8":
		return plyChar, true
	case "uchar", "uint8":
		return plyUChar, true
	case "short", "int16":
		return plyShort, true
	case "ushort", "uint16":
		return plyUShort, true
	case "int", "int32":
		return plyInt, true
	case "uint", "uint32":
		return plyUInt, true
	case "float", "float32":
		return plyFloat, true
	case "double", "float64":
		return plyDouble, true
	default:
		return 0, false
	}
}

func (t plyType) size() int {
	switch t {
	case plyChar, plyUChar:
		return 1
	case plyShort, plyUShort:
		return 2
	case plyInt, plyUInt, plyFloat:
		return 4
	case plyDouble:
		return 8
	default:
		return 0
	}
}

func (t plyType) readAsF32(b []byte) float32 {
	switch t {
	case plyChar:
		return float32(int8(b[0]))
	case plyUChar:
		return float32(b[0])
	case plyShort:
		return float32(int16(binary.LittleEndian.Uint16(b)))
	case plyUShort:
		return float32(binary.LittleEndian.Uint16(b))
	case plyInt:
		return float32(int32(binary.LittleEndian.Uint32(b)))
	case plyUInt:
		return float32(binary.LittleEndian.Uint32(b))
	case plyFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case plyDouble:
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return 0
	}
}

type plyProperty struct {
	name string
	typ  plyType
}

// LoadPLY parses a binary_little_endian PLY point cloud with the Gaussian
// Splatting attribute convention (f_dc_*, opacity, scale_*, rot_*), falling
// back to plain RGB and fixed defaults when those fields are absent.
func LoadPLY(path string) (*splat.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("splatio: failed to read %q: %w", path, err)
	}

	headerEnd, err := findPLYHeaderEnd(data)
	if err != nil {
		return nil, fmt.Errorf("splatio: %q: %w", path, err)
	}

	isBinaryLE := false
	vertexCount := 0
	inVertexElement := false
	var props []plyProperty

	scanner := bufio.NewScanner(bytes.NewReader(data[:headerEnd]))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "comment") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "ply":
		case "format":
			if len(parts) >= 2 && parts[1] == "binary_little_endian" {
				isBinaryLE = true
			}
		case "element":
			if len(parts) >= 3 {
				inVertexElement = parts[1] == "vertex"
				if inVertexElement {
					n, err := strconv.Atoi(parts[2])
					if err != nil {
						return nil, fmt.Errorf("splatio: %q: bad vertex count: %w", path, err)
					}
					vertexCount = n
				}
			}
		case "property":
			if !inVertexElement || len(parts) < 3 {
				continue
			}
			if parts[1] == "list" {
				return nil, fmt.Errorf("splatio: %q: list properties in vertex element are unsupported", path)
			}
			typ, ok := parsePlyType(parts[1])
			if !ok {
				return nil, fmt.Errorf("splatio: %q: unsupported property type %q", path, parts[1])
			}
			props = append(props, plyProperty{name: parts[2], typ: typ})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("splatio: %q: error scanning header: %w", path, err)
	}

	if !isBinaryLE {
		return nil, fmt.Errorf("splatio: %q: only binary_little_endian format is supported", path)
	}
	if vertexCount == 0 || len(props) == 0 {
		return nil, fmt.Errorf("splatio: %q: missing vertex element or properties", path)
	}

	stride := 0
	for _, p := range props {
		stride += p.typ.size()
	}
	if stride == 0 {
		return nil, fmt.Errorf("splatio: %q: invalid vertex stride", path)
	}

	needed := headerEnd + vertexCount*stride
	if len(data) < needed {
		return nil, fmt.Errorf("splatio: %q: file truncated (need %d bytes, have %d)", path, needed, len(data))
	}

	scene := &splat.Scene{Splats: make([]splat.Splat, 0, vertexCount)}
	for i := 0; i < vertexCount; i++ {
		base := headerEnd + i*stride
		chunk := data[base : base+stride]
		scene.Splats = append(scene.Splats, parsePLYVertex(chunk, props))
	}

	return scene, nil
}

func parsePLYVertex(chunk []byte, props []plyProperty) splat.Splat {
	var position mathutil.Vec3
	var dc [3]float32
	var rgb [3]float32
	haveDC, haveRGB := false, false
	opacityRaw := float32(4.0)
	scaleRaw := [3]float32{-3, -3, -3}
	haveScale := false
	rotation := [4]float32{1, 0, 0, 0}
	haveRotation := false

	cursor := 0
	for _, p := range props {
		sz := p.typ.size()
		value := p.typ.readAsF32(chunk[cursor : cursor+sz])
		cursor += sz

		switch p.name {
		case "x":
			position.X = value
		case "y":
			position.Y = value
		case "z":
			position.Z = value
		case "f_dc_0":
			dc[0], haveDC = value, true
		case "f_dc_1":
			dc[1], haveDC = value, true
		case "f_dc_2":
			dc[2], haveDC = value, true
		case "red", "r":
			rgb[0], haveRGB = value, true
		case "green", "g":
			rgb[1], haveRGB = value, true
		case "blue", "b":
			rgb[2], haveRGB = value, true
		case "opacity":
			opacityRaw = value
		case "scale_0":
			scaleRaw[0], haveScale = value, true
		case "scale_1":
			scaleRaw[1], haveScale = value, true
		case "scale_2":
			scaleRaw[2], haveScale = value, true
		case "rot_0":
			rotation[0], haveRotation = value, true
		case "rot_1":
			rotation[1], haveRotation = value, true
		case "rot_2":
			rotation[2], haveRotation = value, true
		case "rot_3":
			rotation[3], haveRotation = value, true
		}
	}

	var color splat.Color
	switch {
	case haveDC:
		color = splat.Color{R: sigmoid(dc[0]), G: sigmoid(dc[1]), B: sigmoid(dc[2])}
	case haveRGB:
		color = splat.Color{R: rgb[0] / 255, G: rgb[1] / 255, B: rgb[2] / 255}
	default:
		const defaultGray = 220.0 / 255.0
		color = splat.Color{R: defaultGray, G: defaultGray, B: defaultGray}
	}

	opacity := clamp01(sigmoid(opacityRaw))

	var scale mathutil.Vec3
	if haveScale {
		scale = mathutil.Vec3{
			X: float32(math.Exp(float64(scaleRaw[0]))),
			Y: float32(math.Exp(float64(scaleRaw[1]))),
			Z: float32(math.Exp(float64(scaleRaw[2]))),
		}
	} else {
		scale = mathutil.Vec3{X: 0.05, Y: 0.05, Z: 0.05}
	}

	quat := mathutil.QuaternionIdentity()
	if haveRotation {
		// PLY's rot_0..3 convention is (w, x, y, z), opposite our field order.
		quat = mathutil.Quaternion{W: rotation[0], X: rotation[1], Y: rotation[2], Z: rotation[3]}
	}

	return splat.New(position, color, opacity, scale, quat)
}

func sigmoid(v float32) float32 {
	return float32(1 / (1 + math.Exp(float64(-v))))
}

func findPLYHeaderEnd(data []byte) (int, error) {
	marker := []byte("end_header")
	pos := bytes.Index(data, marker)
	if pos < 0 {
		return 0, fmt.Errorf("missing end_header")
	}
	end := pos + len(marker)
	for end < len(data) && data[end] != '\n' {
		end++
	}
	if end < len(data) {
		end++
	}
	return end, nil
}

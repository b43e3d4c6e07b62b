package gpu

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
)

// newComputeProgram compiles and links a single compute shader.
func newComputeProgram(src string) (uint32, error) {
	shader, err := compileShader(src, gl.COMPUTE_SHADER)
	if err != nil {
		return 0, fmt.Errorf("compute shader: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, shader)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %v", log)
	}

	gl.DeleteShader(shader)
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

// kernelSet holds the linked program for every stage of the tile pipeline.
type kernelSet struct {
	projectSplats        uint32
	countTileOverlaps    uint32
	prefixScanBlocks     uint32
	prefixScanAddOffsets uint32
	emitTileKeys         uint32
	radixSortHistogram   uint32
	radixSortScatter     uint32
	rasterizeTiles       uint32
}

func newKernelSet() (*kernelSet, error) {
	ks := &kernelSet{}
	sources := []struct {
		name string
		src  string
		dst  *uint32
	}{
		{"project_splats", projectSplatsSrc, &ks.projectSplats},
		{"count_tile_overlaps", countTileOverlapsSrc, &ks.countTileOverlaps},
		{"prefix_scan_blocks", prefixScanBlocksSrc, &ks.prefixScanBlocks},
		{"prefix_scan_add_offsets", prefixScanAddOffsetsSrc, &ks.prefixScanAddOffsets},
		{"emit_tile_keys", emitTileKeysSrc, &ks.emitTileKeys},
		{"radix_sort_histogram", radixSortHistogramSrc, &ks.radixSortHistogram},
		{"radix_sort_scatter", radixSortScatterSrc, &ks.radixSortScatter},
		{"rasterize_tiles", rasterizeTilesSrc, &ks.rasterizeTiles},
	}

	for _, s := range sources {
		prog, err := newComputeProgram(s.src)
		if err != nil {
			return nil, fmt.Errorf("gpu: compiling %s: %w", s.name, err)
		}
		*s.dst = prog
	}
	return ks, nil
}

func (k *kernelSet) delete() {
	for _, prog := range []uint32{
		k.projectSplats, k.countTileOverlaps, k.prefixScanBlocks,
		k.prefixScanAddOffsets, k.emitTileKeys, k.radixSortHistogram,
		k.radixSortScatter, k.rasterizeTiles,
	} {
		gl.DeleteProgram(prog)
	}
}

package gpu

import "github.com/go-gl/gl/v4.3-core/gl"

// ssbo wraps a single shader-storage buffer object and the element
// capacity it was last sized for.
type ssbo struct {
	handle   uint32
	capacity int // element count, not bytes
}

func newSSBO() ssbo {
	var h uint32
	gl.GenBuffers(1, &h)
	return ssbo{handle: h}
}

// allocate (re)allocates the buffer's backing store to hold count uint32
// elements, discarding any previous contents (GL_DYNAMIC_DRAW: written by
// the host rarely relative to how often compute shaders read/write it).
func (b *ssbo) allocate(count int) {
	if count < 1 {
		count = 1
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.handle)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, count*4, nil, gl.DYNAMIC_DRAW)
	b.capacity = count
}

func (b *ssbo) bind(index uint32) {
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, index, b.handle)
}

func (b *ssbo) delete() {
	gl.DeleteBuffers(1, &b.handle)
}

// buffers holds every SSBO the tile pipeline touches across a frame. Sort
// and histogram buffers grow on demand and occasionally shrink back down;
// splat/projected/tile buffers grow only, matching the original backend's
// "allocate once for the largest scene/screen seen so far" policy.
type buffers struct {
	splats    ssbo // input GpuSplat records, grown to scene size once
	projected ssbo // ProjectedSplat scratch, one entry per splat

	// tileCounts is sized numTiles+1. countTileOverlaps atomically fills
	// indices [0,numTiles) with per-tile overlap counts and index numTiles
	// with the grand total; prefixScanInPlace then scans only the first
	// numTiles entries, turning them into the exclusive start offsets
	// emitTileKeys and rasterizeTiles read as tile boundaries - the same
	// buffer plays "counts" and "offsets" at different points in the frame,
	// no separate copy needed.
	tileCounts   ssbo
	tileCounters ssbo // atomic write-cursor scratch for emitTileKeys
	tileCapacity int

	sortKeysA, sortKeysB     ssbo
	sortValuesA, sortValuesB ssbo
	sortCapacity             int
	framesBelowThreshold     int

	radixHistogram    ssbo
	histogramCapacity int
	blockSums         ssbo
	blockSumsCapacity int

	framebuffer         ssbo
	framebufferCapacity int // pixel count
}

func newBuffers() *buffers {
	return &buffers{
		splats:       newSSBO(),
		projected:    newSSBO(),
		tileCounts:   newSSBO(),
		tileCounters: newSSBO(),
		sortKeysA:    newSSBO(),
		sortKeysB:    newSSBO(),
		sortValuesA:    newSSBO(),
		sortValuesB:    newSSBO(),
		radixHistogram: newSSBO(),
		blockSums:      newSSBO(),
		framebuffer:    newSSBO(),
	}
}

func (b *buffers) delete() {
	for _, s := range []*ssbo{
		&b.splats, &b.projected, &b.tileCounts, &b.tileCounters,
		&b.sortKeysA, &b.sortKeysB, &b.sortValuesA, &b.sortValuesB,
		&b.radixHistogram, &b.blockSums, &b.framebuffer,
	} {
		s.delete()
	}
}

func (b *buffers) ensureSplatCapacity(count int) {
	if count*16 <= b.splats.capacity {
		return
	}
	// GpuSplat is 4 vec4 = 16 floats per record.
	b.splats.allocate(count * 16)
	b.projected.allocate(count * 16)
}

func (b *buffers) ensureFramebufferCapacity(pixels int) {
	if pixels <= b.framebufferCapacity {
		return
	}
	b.framebuffer.allocate(pixels)
	b.framebufferCapacity = pixels
}

func (b *buffers) ensureTileCapacity(numTiles int) {
	if numTiles <= b.tileCapacity {
		return
	}
	b.tileCounts.allocate(numTiles + 1)
	b.tileCounters.allocate(numTiles)
	b.tileCapacity = numTiles
}

func (b *buffers) ensureSortCapacity(overlaps int) {
	if overlaps <= b.sortCapacity {
		return
	}
	b.reallocateSortBuffers(nextPowerOfTwo(overlaps))
}

func (b *buffers) reallocateSortBuffers(capacity int) {
	b.sortKeysA.allocate(capacity)
	b.sortKeysB.allocate(capacity)
	b.sortValuesA.allocate(capacity)
	b.sortValuesB.allocate(capacity)
	b.sortCapacity = capacity
}

// ensureSortCapacityWithHeadroom grows to cover requiredOverlaps scaled by
// headroomNum/headroomDen, so a render attempt rarely has to retry.
func (b *buffers) ensureSortCapacityWithHeadroom(requiredOverlaps, headroomNum, headroomDen int) {
	if headroomDen < 1 {
		headroomDen = 1
	}
	headroom := divCeilInt(requiredOverlaps*headroomNum, headroomDen)
	if headroom < 1 {
		headroom = 1
	}
	b.ensureSortCapacity(headroom)
}

// maybeShrinkSortCapacity halves the sort buffers' capacity after
// shrinkHysteresisFr consecutive frames come in under half capacity,
// trading a one-time reallocation for steady-state memory pressure.
func (b *buffers) maybeShrinkSortCapacity(actualOverlaps int) {
	if b.sortCapacity <= 1 {
		b.framesBelowThreshold = 0
		return
	}

	shrinkThreshold := b.sortCapacity / 2
	if actualOverlaps < shrinkThreshold {
		b.framesBelowThreshold++
		if b.framesBelowThreshold >= shrinkHysteresisFr {
			newCapacity := b.sortCapacity / 2
			if newCapacity < 1 {
				newCapacity = 1
			}
			if actualOverlaps <= newCapacity {
				b.reallocateSortBuffers(newCapacity)
			}
			b.framesBelowThreshold = 0
		}
	} else {
		b.framesBelowThreshold = 0
	}
}

func (b *buffers) ensureHistogramCapacity(count int) {
	if count <= b.histogramCapacity {
		return
	}
	b.radixHistogram.allocate(count)
	b.histogramCapacity = count
}

func (b *buffers) ensureBlockSumsCapacityForCount(count uint32) {
	required := requiredBlockSumElements(count)
	if required <= b.blockSumsCapacity {
		return
	}
	b.blockSums.allocate(required)
	b.blockSumsCapacity = required
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

package gpu

import (
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"splatterm/camera"
)

func uniformLoc(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func setUniform1ui(program uint32, name string, v uint32) {
	gl.Uniform1ui(uniformLoc(program, name), v)
}

func setUniform1i(program uint32, name string, v int32) {
	gl.Uniform1i(uniformLoc(program, name), v)
}

func setUniform1f(program uint32, name string, v float32) {
	gl.Uniform1f(uniformLoc(program, name), v)
}

func setUniform2f(program uint32, name string, x, y float32) {
	gl.Uniform2f(uniformLoc(program, name), x, y)
}

func setUniform2i(program uint32, name string, x, y int32) {
	gl.Uniform2i(uniformLoc(program, name), x, y)
}

func setUniformMat3(program uint32, name string, m [9]float32) {
	gl.UniformMatrix3fv(uniformLoc(program, name), 1, false, &m[0])
}

// dispatchProjectSplats runs project_splats over every splat, writing
// ProjectedSplat records (culled entries have screenDepth.w == 0).
func (b *Backend) dispatchProjectSplats(cam *camera.Camera, screenWidth, screenHeight, splatCount int) {
	prog := b.kernels.projectSplats
	gl.UseProgram(prog)

	b.bufs.splats.bind(0)
	b.bufs.projected.bind(1)

	// uViewBasis rows are right/up/forward; GLSL mat3 columns are
	// rows of the Go array in column-major order, so transpose on upload.
	basis := [9]float32{
		cam.Right.X, cam.Up.X, cam.Forward.X,
		cam.Right.Y, cam.Up.Y, cam.Forward.Y,
		cam.Right.Z, cam.Up.Z, cam.Forward.Z,
	}
	setUniformMat3(prog, "uViewBasis", basis)
	gl.Uniform3f(uniformLoc(prog, "uCamPos"), cam.Position.X, cam.Position.Y, cam.Position.Z)

	fx, fy := cam.FocalLengths(screenWidth, screenHeight)
	setUniform2f(prog, "uFocal", fx, fy)
	setUniform2f(prog, "uHalfScreen", float32(screenWidth)*0.5, float32(screenHeight)*0.5)
	setUniform1f(prog, "uNear", cam.Near)
	setUniform1f(prog, "uFar", cam.Far)
	setUniform1ui(prog, "uCount", uint32(splatCount))

	gl.DispatchCompute(divCeilU32(uint32(splatCount), 64), 1, 1)
}

func (b *Backend) dispatchCountTileOverlaps(splatCount int, tiles TileConfig) {
	prog := b.kernels.countTileOverlaps
	gl.UseProgram(prog)

	b.bufs.projected.bind(1)
	b.bufs.tileCounts.bind(2)

	setUniform1ui(prog, "uCount", uint32(splatCount))
	setUniform2i(prog, "uTileGrid", int32(tiles.TileCountX), int32(tiles.TileCountY))
	setUniform1i(prog, "uTilePixels", tilePixels)
	setUniform1ui(prog, "uNumTiles", uint32(tiles.NumTiles()))

	gl.DispatchCompute(divCeilU32(uint32(splatCount), 64), 1, 1)
}

// readTotalOverlaps reads tileCounts[numTiles], the grand total left
// untouched by the in-place scan over the first numTiles entries.
func (b *Backend) readTotalOverlaps(numTiles int) uint32 {
	var total uint32
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.bufs.tileCounts.handle)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, numTiles*4, 4, unsafe.Pointer(&total))
	return total
}

// prefixScanInPlace exclusive-scans tileCounts[0:count) in place.
func (b *Backend) prefixScanInPlace(count int) {
	if count <= 0 {
		return
	}
	if count == 1 {
		var zero uint32
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.bufs.tileCounts.handle)
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, 4, unsafe.Pointer(&zero))
		return
	}
	b.scanLevel(b.bufs.tileCounts.handle, 0, uint32(count), 0)
}

// scanLevel exclusive-scans count elements starting at elemOffset within
// buf, recursing into the shared blockSums buffer when more than one
// 256-wide workgroup is needed.
func (b *Backend) scanLevel(bufHandle uint32, elemOffset int, count uint32, blockSumsElemOffset int) {
	blocks := divCeilU32(count, threadsPerGroup1D)

	gl.UseProgram(b.kernels.prefixScanBlocks)
	gl.BindBufferRange(gl.SHADER_STORAGE_BUFFER, 2, bufHandle, elemOffset*4, int(count)*4)
	gl.BindBufferRange(gl.SHADER_STORAGE_BUFFER, 3, b.bufs.blockSums.handle, blockSumsElemOffset*4, int(blocks)*4)
	setUniform1ui(b.kernels.prefixScanBlocks, "uCount", count)
	gl.DispatchCompute(blocks, 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	if blocks <= 1 {
		return
	}

	b.scanLevel(b.bufs.blockSums.handle, blockSumsElemOffset, blocks, blockSumsElemOffset+int(blocks))

	gl.UseProgram(b.kernels.prefixScanAddOffsets)
	gl.BindBufferRange(gl.SHADER_STORAGE_BUFFER, 2, bufHandle, elemOffset*4, int(count)*4)
	gl.BindBufferRange(gl.SHADER_STORAGE_BUFFER, 3, b.bufs.blockSums.handle, blockSumsElemOffset*4, int(blocks)*4)
	setUniform1ui(b.kernels.prefixScanAddOffsets, "uCount", count)
	gl.DispatchCompute(blocks, 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
}

// dispatchEmitTileKeys is only ever reached once the host has confirmed
// totalOverlaps fits within the current sort capacity (see Render's
// overflow check), so unlike the original backend this kernel needs no
// overflow flag or capacity uniform of its own.
func (b *Backend) dispatchEmitTileKeys(cam *camera.Camera, splatCount int, tiles TileConfig) {
	prog := b.kernels.emitTileKeys
	gl.UseProgram(prog)

	b.bufs.projected.bind(1)
	b.bufs.tileCounts.bind(2)
	b.bufs.tileCounters.bind(11)
	b.bufs.sortKeysA.bind(4)
	b.bufs.sortValuesA.bind(5)

	setUniform1ui(prog, "uCount", uint32(splatCount))
	setUniform2i(prog, "uTileGrid", int32(tiles.TileCountX), int32(tiles.TileCountY))
	setUniform1i(prog, "uTilePixels", tilePixels)
	setUniform1f(prog, "uNear", cam.Near)
	setUniform1f(prog, "uFar", cam.Far)

	gl.DispatchCompute(divCeilU32(uint32(splatCount), 64), 1, 1)
}

// runRadixSortPasses performs 4 passes of an 8-bit-digit LSD radix sort
// over the packed 32-bit keys, ping-ponging between the A/B key/value
// buffers. Returns true if the final sorted data ended up in the A
// buffers (an even number of passes), matching the keys_in_a convention
// of the original backend.
//
// Each pass is stable, per §4.4.5: every workgroup owns one 256-element
// block and builds its own 256-bucket histogram (radixSortHistogramSrc),
// the host exclusive-scans the flattened uNumBlocks*256 histogram in
// column-major order (bucket b of block 0 before bucket b of block 1,
// via the ordinary 1D scanLevel over the digit-major layout), and the
// scatter kernel resolves each element's destination as that block's
// scanned bucket offset plus a same-block, same-digit local rank computed
// from shared memory — so elements that compared equal on earlier
// (less-significant) passes keep arriving in the same relative order on
// this one.
func (b *Backend) runRadixSortPasses(count uint32) bool {
	keysIn, valuesIn := &b.bufs.sortKeysA, &b.bufs.sortValuesA
	keysOut, valuesOut := &b.bufs.sortKeysB, &b.bufs.sortValuesB
	keysInA := true

	numBlocks := divCeilU32(count, threadsPerGroup1D)
	histogramLen := radixBuckets * numBlocks

	for shift := uint32(0); shift < 32; shift += 8 {
		b.clearHistogram(histogramLen)

		gl.UseProgram(b.kernels.radixSortHistogram)
		keysIn.bind(4)
		b.bufs.radixHistogram.bind(6)
		setUniform1ui(b.kernels.radixSortHistogram, "uCount", count)
		setUniform1ui(b.kernels.radixSortHistogram, "uShift", shift)
		setUniform1ui(b.kernels.radixSortHistogram, "uNumBlocks", numBlocks)
		gl.DispatchCompute(numBlocks, 1, 1)
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

		// Exclusive-scan the whole digit-major/block-minor histogram in one
		// pass: scanning left to right over [digit][block] naturally visits
		// every block of digit d before any block of digit d+1, and within
		// a digit visits blocks in increasing order - exactly the
		// column-major ordering §4.4.5 specifies.
		b.scanLevel(b.bufs.radixHistogram.handle, 0, histogramLen, 0)

		gl.UseProgram(b.kernels.radixSortScatter)
		keysIn.bind(4)
		valuesIn.bind(5)
		b.bufs.radixHistogram.bind(6)
		keysOut.bind(7)
		valuesOut.bind(8)
		setUniform1ui(b.kernels.radixSortScatter, "uCount", count)
		setUniform1ui(b.kernels.radixSortScatter, "uShift", shift)
		setUniform1ui(b.kernels.radixSortScatter, "uNumBlocks", numBlocks)
		gl.DispatchCompute(numBlocks, 1, 1)
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

		keysIn, keysOut = keysOut, keysIn
		valuesIn, valuesOut = valuesOut, valuesIn
		keysInA = !keysInA
	}

	return keysInA
}

func (b *Backend) clearHistogram(count uint32) {
	zero := make([]uint32, count)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.bufs.radixHistogram.handle)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, int(count)*4, gl.Ptr(zero))
}

func (b *Backend) dispatchRasterizeTiles(tiles TileConfig, totalOverlaps uint32, keysInA bool) {
	prog := b.kernels.rasterizeTiles
	gl.UseProgram(prog)

	b.bufs.projected.bind(1)
	if keysInA {
		b.bufs.sortValuesA.bind(5)
	} else {
		b.bufs.sortValuesB.bind(5)
	}
	b.bufs.tileCounts.bind(2)
	b.bufs.framebuffer.bind(10)

	setUniform2i(prog, "uTileGrid", int32(tiles.TileCountX), int32(tiles.TileCountY))
	setUniform1i(prog, "uTilePixels", tilePixels)
	setUniform2i(prog, "uScreenSize", int32(tiles.ScreenWidth), int32(tiles.ScreenHeight))
	setUniform1f(prog, "uSaturationEpsilon", 0.999)
	setUniform1f(prog, "uMinContribution", 0.001)

	gl.DispatchCompute(tiles.TileCountX, tiles.TileCountY, 1)
}

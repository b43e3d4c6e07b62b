package gpu

import (
	"time"

	"github.com/go-gl/gl/v4.3-core/gl"

	"splatterm/camera"
	"splatterm/splat"
)

// Backend owns the offscreen GL context, the compiled kernel set, and every
// SSBO the tile pipeline touches. Once a render attempt fails with a
// Timeout or CommandFailed RenderError, Disabled() returns true for the
// rest of the session and the caller must fall back to the CPU back-end
// permanently, per the original Metal backend's gpu_disabled latch.
type Backend struct {
	ctx     *Context
	kernels *kernelSet
	bufs    *buffers

	splatsUploaded        bool
	maxSplats             int
	disabled              bool
	previousTotalOverlaps int
	lastRenderWidth       int
	lastRenderHeight      int
}

// NewBackend brings up the offscreen context and compiles every kernel.
// Any failure here (no GL 4.3 driver, shader compile error) is reported to
// the caller so it can fall back to the CPU back-end before ever trying to
// render a frame.
func NewBackend() (*Backend, error) {
	ctx, err := NewContext()
	if err != nil {
		return nil, err
	}
	kernels, err := newKernelSet()
	if err != nil {
		ctx.Close()
		return nil, err
	}
	return &Backend{ctx: ctx, kernels: kernels, bufs: newBuffers()}, nil
}

// Close releases every GL resource the backend owns.
func (b *Backend) Close() {
	b.bufs.delete()
	b.kernels.delete()
	b.ctx.Close()
}

// Disabled reports whether a prior timeout or command failure has
// permanently disabled this backend for the session.
func (b *Backend) Disabled() bool { return b.disabled }

// UploadScene packs scene into the GpuSplat SSBO layout (posOpacity,
// colorPad, scale, rotation: 16 float32 per record) and uploads it once;
// Render re-dispatches against the same uploaded buffer every frame.
func (b *Backend) UploadScene(scene *splat.Scene) {
	b.bufs.ensureSplatCapacity(len(scene.Splats))

	data := make([]float32, len(scene.Splats)*16)
	for i, s := range scene.Splats {
		base := i * 16
		data[base+0] = s.Position.X
		data[base+1] = s.Position.Y
		data[base+2] = s.Position.Z
		data[base+3] = s.Opacity
		data[base+4] = s.Color.R
		data[base+5] = s.Color.G
		data[base+6] = s.Color.B
		data[base+7] = 0
		data[base+8] = s.Scale.X
		data[base+9] = s.Scale.Y
		data[base+10] = s.Scale.Z
		data[base+11] = 0
		data[base+12] = s.Rotation.X
		data[base+13] = s.Rotation.Y
		data[base+14] = s.Rotation.Z
		data[base+15] = s.Rotation.W
	}

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.bufs.splats.handle)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(data)*4, gl.Ptr(data))

	b.splatsUploaded = true
	b.maxSplats = len(scene.Splats)
}

// Render projects, sorts, and rasterizes splatCount splats (the first
// splatCount entries of the most recently uploaded scene) into an
// internal framebuffer sized screenWidth x screenHeight, retrying with
// more sort capacity on overlap overflow exactly as the original backend
// does: one same-frame retry, then OverflowDeferred so the caller can
// retry next frame with the grown capacity already in place.
func (b *Backend) Render(cam *camera.Camera, screenWidth, screenHeight, splatCount int) error {
	if b.disabled {
		return errDisabled()
	}
	if !b.splatsUploaded {
		return errOther("no splats uploaded to GPU backend")
	}
	if screenWidth == 0 || screenHeight == 0 {
		b.lastRenderWidth, b.lastRenderHeight = screenWidth, screenHeight
		return nil
	}
	if splatCount > b.maxSplats {
		return errOther("splat count exceeds uploaded scene size")
	}

	tiles := tileConfigFor(screenWidth, screenHeight)
	if tiles.NumTiles() > maxTilesEncodable {
		return errOther("tile count exceeds 10-bit tile_id encoding")
	}

	b.bufs.ensureFramebufferCapacity(screenWidth * screenHeight)
	if splatCount == 0 {
		b.clearFramebuffer(screenWidth * screenHeight)
		b.lastRenderWidth, b.lastRenderHeight = screenWidth, screenHeight
		return nil
	}
	b.bufs.ensureTileCapacity(tiles.NumTiles())

	for attempt := 0; ; attempt++ {
		estimated := splatCount * 8
		if b.previousTotalOverlaps > 0 {
			estimated = b.previousTotalOverlaps * 2
			if floor := splatCount * 4; estimated < floor {
				estimated = floor
			}
		}
		if estimated < 1 {
			estimated = 1
		}
		b.bufs.ensureSortCapacityWithHeadroom(estimated, 2, 1)

		result, err := b.runSingleAttempt(cam, screenWidth, screenHeight, splatCount, tiles)
		if err != nil {
			return err
		}

		b.previousTotalOverlaps = int(result.totalOverlaps)
		if result.overflowFlag == 0 {
			b.bufs.maybeShrinkSortCapacity(int(result.totalOverlaps))
			break
		}

		growthTarget := int(result.totalOverlaps) * 2
		if growthTarget < 1 {
			growthTarget = 1
		}
		if attempt >= 1 {
			b.bufs.ensureSortCapacity(growthTarget)
			return errOverflowDeferred(growthTarget, result.totalOverlaps)
		}
		b.bufs.ensureSortCapacity(growthTarget)
	}

	b.lastRenderWidth, b.lastRenderHeight = screenWidth, screenHeight
	return nil
}

type attemptResult struct {
	overflowFlag  uint32
	totalOverlaps uint32
}

// runSingleAttempt is the two-stage submit/wait state machine: stage A
// projects, counts overlaps per tile, and prefix-scans the counts into
// offsets; the host reads total_overlaps back and decides whether stage B
// (emit keys, radix sort, rasterize) fits in the current sort capacity.
func (b *Backend) runSingleAttempt(cam *camera.Camera, screenWidth, screenHeight, splatCount int, tiles TileConfig) (attemptResult, error) {
	numTiles := tiles.NumTiles()
	b.bufs.ensureBlockSumsCapacityForCount(uint32(numTiles))

	b.clearStageABuffers(screenWidth*screenHeight, numTiles)

	b.dispatchProjectSplats(cam, screenWidth, screenHeight, splatCount)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	b.dispatchCountTileOverlaps(splatCount, tiles)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	// tileCounts[0:numTiles) holds per-tile overlap counts and
	// tileCounts[numTiles] holds the grand total (see buffers.go); the scan
	// below only touches the first numTiles entries, turning them into
	// exclusive start offsets while leaving the total slot untouched.
	b.prefixScanInPlace(numTiles)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	if err := b.waitStage("project_count_scan"); err != nil {
		return attemptResult{}, err
	}

	totalOverlaps := b.readTotalOverlaps(numTiles)
	sortCapacity := uint32(b.bufs.sortCapacity)
	if totalOverlaps > sortCapacity {
		return attemptResult{overflowFlag: 1, totalOverlaps: totalOverlaps}, nil
	}

	if totalOverlaps > 0 {
		// A per-block 256-bucket histogram (see dispatch.go's
		// runRadixSortPasses) needs numBlocks*256 entries, and the scan
		// over that flattened buffer needs block sums sized for the same
		// count.
		numBlocks := divCeilU32(totalOverlaps, threadsPerGroup1D)
		histogramLen := radixBuckets * numBlocks
		b.bufs.ensureHistogramCapacity(int(histogramLen))
		b.bufs.ensureBlockSumsCapacityForCount(histogramLen)
	}

	b.dispatchEmitTileKeys(cam, splatCount, tiles)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	keysInA := true
	if totalOverlaps > 0 {
		keysInA = b.runRadixSortPasses(totalOverlaps)
		b.dispatchRasterizeTiles(tiles, totalOverlaps, keysInA)
	}

	if err := b.waitStage("sort_rasterize"); err != nil {
		return attemptResult{}, err
	}

	return attemptResult{overflowFlag: 0, totalOverlaps: totalOverlaps}, nil
}

// waitStage inserts a fence after the work issued so far and polls it with
// glClientWaitSync, GL's analogue of a Vulkan/Metal command-buffer fence.
// Timeout or an unsignaled fence after a driver-reported error disables the
// backend for the rest of the session.
func (b *Backend) waitStage(stage string) error {
	sync := gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	defer gl.DeleteSync(sync)

	deadline := time.Now().Add(gpuWaitTimeoutMs * time.Millisecond)
	for {
		status := gl.ClientWaitSync(sync, gl.SYNC_FLUSH_COMMANDS_BIT, 0)
		switch status {
		case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
			return nil
		case gl.WAIT_FAILED:
			b.disabled = true
			return errCommandFailed(stage)
		}
		if time.Now().After(deadline) {
			b.disabled = true
			return errTimeout(stage, gpuWaitTimeoutMs)
		}
		time.Sleep(time.Millisecond)
	}
}

func (b *Backend) clearFramebuffer(pixels int) {
	zero := make([]uint32, pixels)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.bufs.framebuffer.handle)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, pixels*4, gl.Ptr(zero))
}

func (b *Backend) clearStageABuffers(pixels, numTiles int) {
	b.clearFramebuffer(pixels)
	zeroTiles := make([]uint32, numTiles+1)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.bufs.tileCounts.handle)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, (numTiles+1)*4, gl.Ptr(zeroTiles))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.bufs.tileCounters.handle)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, numTiles*4, gl.Ptr(zeroTiles[:numTiles]))
}

// ReadPixels reads the packed R|G<<8|B<<16|A<<24 framebuffer back from the
// GPU into host memory, called once per frame after Render succeeds.
func (b *Backend) ReadPixels() []uint32 {
	pixels := b.lastRenderWidth * b.lastRenderHeight
	out := make([]uint32, pixels)
	if pixels == 0 {
		return out
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.bufs.framebuffer.handle)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, pixels*4, gl.Ptr(out))
	return out
}

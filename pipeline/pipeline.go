// Package pipeline orchestrates a single frame end to end: project, sort,
// rasterize (or the GPU back-end's equivalent), choosing and falling back
// between back-ends the way the original backend's gpu_disabled latch does.
package pipeline

import (
	"errors"
	"fmt"

	"splatterm/camera"
	"splatterm/depthsort"
	"splatterm/gpu"
	"splatterm/internal/appconfig"
	"splatterm/internal/diag"
	"splatterm/internal/parallel"
	"splatterm/projector"
	"splatterm/rasterizer"
	"splatterm/splat"
)

// FrameStats summarizes one RenderFrame call for the HUD.
type FrameStats struct {
	VisibleSplats int
	TotalSplats   int
	Backend       string // "CPU" or "GPU"
	GPUStatus     string // "", "OK", "DISABLED", or "ERR:<message>"
}

// Pipeline owns the pixel buffer, the projected-splat slice and the worker
// pool, reused across frames: the pixel buffer is reallocated only when the
// frame size changes, and the projected slice only when it has to grow.
type Pipeline struct {
	scene *splat.Scene

	pool *parallel.Pool
	proj *projector.Projector
	rast *rasterizer.Rasterizer
	buf  *rasterizer.Buffer

	projected []splat.Projected

	gpuBackend *gpu.Backend
	diagRing   *diag.Ring
}

// New brings up a Pipeline for scene. pref selects the back-end the way
// appconfig.Config.Backend documents: BackendCPU never touches the GPU
// package; BackendGPU fails loudly if the GPU back-end can't be brought
// up; BackendAuto tries the GPU and silently falls back to CPU, logging
// the reason to ring.
func New(scene *splat.Scene, pref appconfig.Backend, ring *diag.Ring) (*Pipeline, error) {
	pool := parallel.New(0)
	p := &Pipeline{
		scene:    scene,
		pool:     pool,
		proj:     projector.New(pool),
		rast:     rasterizer.New(pool),
		buf:      rasterizer.NewBuffer(1, 1),
		diagRing: ring,
	}

	if pref == appconfig.BackendCPU {
		return p, nil
	}

	backend, err := gpu.NewBackend()
	if err != nil {
		if pref == appconfig.BackendGPU {
			p.Close()
			return nil, err
		}
		p.logf("gpu: unavailable, using CPU back-end (%v)", err)
		return p, nil
	}
	backend.UploadScene(scene)
	p.gpuBackend = backend
	return p, nil
}

// Close releases every worker pool and GPU resource the pipeline owns.
func (p *Pipeline) Close() {
	if p.gpuBackend != nil {
		p.gpuBackend.Close()
	}
	p.proj.Close()
	p.rast.Close()
	p.pool.Close()
}

func (p *Pipeline) logf(format string, args ...any) {
	diag.Logf(format, args...)
	if p.diagRing != nil {
		p.diagRing.Push(fmt.Sprintf(format, args...))
	}
}

// Workers returns the CPU worker pool's goroutine count, for the HUD.
func (p *Pipeline) Workers() int { return p.pool.Workers() }

// useGPU reports whether the GPU back-end should be tried this frame.
func (p *Pipeline) useGPU() bool {
	return p.gpuBackend != nil && !p.gpuBackend.Disabled()
}

// RenderFrame projects, sorts, and rasterizes the scene into a
// width x height buffer owned by the pipeline (valid until the next
// RenderFrame call). If the GPU back-end is active and its attempt fails
// with an error that demands permanent fallback, the backend is disabled
// for the rest of the session and this frame still completes on the CPU
// path; an overflow-deferred error only falls back for this one frame.
func (p *Pipeline) RenderFrame(cam *camera.Camera, width, height int) (*rasterizer.Buffer, FrameStats) {
	total := len(p.scene.Splats)

	if p.useGPU() {
		buf, err := p.renderGPU(cam, width, height)
		if err == nil {
			return buf, FrameStats{
				VisibleSplats: total, // the compute pipeline culls internally; no cheap readback of the surviving count
				TotalSplats:   total,
				Backend:       "GPU",
				GPUStatus:     "OK",
			}
		}

		var rerr *gpu.RenderError
		status := "ERR:" + err.Error()
		if errors.As(err, &rerr) {
			if rerr.ShouldDisableGPU() {
				p.logf("gpu: disabling back-end after %v", err)
				status = "DISABLED"
			} else {
				p.logf("gpu: %v, falling back to CPU for this frame", err)
			}
		}
		buf, stats := p.renderCPU(cam, width, height)
		stats.GPUStatus = status
		return buf, stats
	}

	buf, stats := p.renderCPU(cam, width, height)
	if p.gpuBackend != nil {
		stats.GPUStatus = "DISABLED"
	}
	return buf, stats
}

func (p *Pipeline) renderCPU(cam *camera.Camera, width, height int) (*rasterizer.Buffer, FrameStats) {
	p.buf.Resize(width, height)
	p.buf.Clear()

	p.projected = p.proj.ProjectAndCull(p.scene.Splats, cam, width, height, p.projected)
	depthsort.ByDepth(p.projected)
	p.rast.Rasterize(p.projected, p.buf)

	return p.buf, FrameStats{
		VisibleSplats: len(p.projected),
		TotalSplats:   len(p.scene.Splats),
		Backend:       "CPU",
	}
}

func (p *Pipeline) renderGPU(cam *camera.Camera, width, height int) (*rasterizer.Buffer, error) {
	if err := p.gpuBackend.Render(cam, width, height, len(p.scene.Splats)); err != nil {
		return nil, err
	}

	p.buf.Resize(width, height)
	unpackFramebuffer(p.gpuBackend.ReadPixels(), p.buf)
	return p.buf, nil
}

// unpackFramebuffer decodes the GPU back-end's packed
// R | G<<8 | B<<16 | A<<24 framebuffer into buf's float32 color/alpha
// planes; the compute pipeline has already performed the front-to-back
// blend, so Depth is not written and keeps whatever the buffer last held
// (nothing downstream of RenderFrame reads it for the GPU path).
func unpackFramebuffer(pixels []uint32, buf *rasterizer.Buffer) {
	n := len(pixels)
	if n > len(buf.Color) {
		n = len(buf.Color)
	}
	for i := 0; i < n; i++ {
		px := pixels[i]
		buf.Color[i] = splat.Color{
			R: float32(px&0xFF) / 255,
			G: float32((px>>8)&0xFF) / 255,
			B: float32((px>>16)&0xFF) / 255,
		}
		buf.Alpha[i] = float32((px>>24)&0xFF) / 255
	}
}

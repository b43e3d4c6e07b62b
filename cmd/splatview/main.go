// Command splatview is a terminal-native viewer for 3D Gaussian splat
// scenes: load (or procedurally generate) a scene, then project, sort,
// rasterize, and present it as colored half-block glyphs every frame.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"

	"splatterm/camera"
	"splatterm/demoscene"
	"splatterm/display"
	"splatterm/internal/appconfig"
	"splatterm/internal/diag"
	"splatterm/internal/mathutil"
	"splatterm/inputthread"
	"splatterm/pipeline"
	"splatterm/splat"
	"splatterm/splatio"
)

const frameTarget = 33 * time.Millisecond // ~30fps cap, halfblock mode

// keyReleaseTimeout implements the keyup heuristic inputthread.HeldMovementKeys'
// doc comment defers to the caller: a raw terminal never reports a key-up, only
// the OS's key-repeat cadence while a key stays down, so a movement axis is
// considered released once its last repeat is older than this.
const keyReleaseTimeout = 120 * time.Millisecond

// heldTimestamps records when each movement key was last seen, decayed by
// the frame loop into inputthread.State.Held booleans.
type heldTimestamps struct {
	forward, back, left, right time.Time
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "splatview:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := appconfig.Parse(os.Args[1:])
	if err != nil {
		return err
	}
	diag.SetVerbose(cfg.Verbose)

	scene, err := loadScene(cfg)
	if err != nil {
		return err
	}
	if cfg.FlipY {
		scene.FlipY()
	}
	if cfg.FlipZ {
		scene.FlipZ()
	}

	ring := diag.NewRing()
	pl, err := pipeline.New(scene, cfg.Backend, ring)
	if err != nil {
		return fmt.Errorf("bringing up render pipeline: %w", err)
	}
	defer pl.Close()

	cam := camera.New(mathutil.Vec3{X: 0, Y: 0, Z: 5}, -halfPi, 0)
	cam.LookAt(mathutil.Vec3Zero)
	ctrl := camera.NewController(cam)
	ctrl.SyncOrbitFromCamera()

	colorTerm := os.Getenv("COLORTERM")
	mode := display.NewHalfblock(colorTerm == "truecolor" || colorTerm == "24bit")

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("entering raw terminal mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	out := bufio.NewWriterSize(os.Stdout, 1<<20)
	fmt.Fprint(out, "\x1b[?1049h\x1b[?25l\x1b[2J") // alt screen, hide cursor, clear
	defer func() {
		fmt.Fprint(out, "\x1b[?25h\x1b[?1049l") // restore cursor, leave alt screen
		out.Flush()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	reader := inputthread.Start(os.Stdin)
	defer reader.Stop()

	return frameLoop(pl, cam, ctrl, mode, cfg, ring, reader, sigCh, out)
}

func loadScene(cfg appconfig.Config) (*splat.Scene, error) {
	if cfg.Demo {
		return demoscene.Generate(1), nil
	}
	return splatio.Load(cfg.ScenePath)
}

func frameLoop(
	pl *pipeline.Pipeline,
	cam *camera.Camera,
	ctrl *camera.Controller,
	mode display.Mode,
	cfg appconfig.Config,
	ring *diag.Ring,
	reader *inputthread.Reader,
	sigCh chan os.Signal,
	out *bufio.Writer,
) error {
	state := inputthread.NewState()
	var held heldTimestamps
	lastFrame := time.Now()
	var fps float64

	for {
		frameStart := time.Now()

		if drainEvents(reader, sigCh, state, ctrl, &held) {
			return nil
		}
		decayHeldKeys(state, &held, frameStart)

		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		if dt < 1e-6 {
			dt = 1e-6
		}
		lastFrame = now

		ctrl.Update(dt)
		inputthread.ApplyHeldMovement(state, ctrl, dt)

		cols, rows, err := term.GetSize(int(os.Stdin.Fd()))
		if err != nil || cols < 1 || rows < 1 {
			cols, rows = 80, 24
		}
		width, height := cols*cfg.Supersample, rows*2*cfg.Supersample

		buf, stats := pl.RenderFrame(cam, width, height)

		frame, err := mode.Render(buf, cols, rows, cfg.Supersample)
		if err != nil {
			return err
		}
		out.Write(frame)

		if state.ShowHUD {
			hudStats := display.Stats{
				FPS:           fps,
				VisibleSplats: stats.VisibleSplats,
				TotalSplats:   stats.TotalSplats,
				CameraX:       cam.Position.X,
				CameraY:       cam.Position.Y,
				CameraZ:       cam.Position.Z,
				MoveSpeed:     ctrl.MoveSpeed,
				CameraMode:    cameraModeName(ctrl),
				RenderMode:    mode.Name(),
				Backend:       stats.Backend,
				Supersample:   cfg.Supersample,
				TermCols:      cols,
				TermRows:      rows,
				Workers:       pl.Workers(),
				GPUStatus:     stats.GPUStatus,
			}
			hints := display.FreeCamControls
			if ctrl.AutoOrbit {
				hints = display.OrbitCamControls
			}
			if last := ring.Last(); last != "" {
				hints = last
			}
			out.WriteString(display.RenderHUD(hudStats, hints))
		}

		if err := out.Flush(); err != nil {
			return err
		}

		instantFPS := 1.0 / float64(dt)
		if fps <= 0.01 {
			fps = instantFPS
		} else {
			fps = 0.90*fps + 0.10*instantFPS
		}

		if spent := time.Since(frameStart); spent < frameTarget {
			time.Sleep(frameTarget - spent)
		}
	}
}

// drainEvents consumes every currently queued input event (and a pending
// interrupt signal) without blocking, so a burst of buffered keystrokes
// doesn't trickle in one per frame. Returns true if the app should quit.
func drainEvents(reader *inputthread.Reader, sigCh chan os.Signal, state *inputthread.State, ctrl *camera.Controller, held *heldTimestamps) bool {
	for {
		select {
		case <-sigCh:
			return true
		case ev := <-reader.Events():
			if handleEvent(ev, state, ctrl, held) {
				return true
			}
		default:
			return false
		}
	}
}

func decayHeldKeys(state *inputthread.State, held *heldTimestamps, now time.Time) {
	if state.Held.Forward && now.Sub(held.forward) > keyReleaseTimeout {
		state.Held.Forward = false
	}
	if state.Held.Back && now.Sub(held.back) > keyReleaseTimeout {
		state.Held.Back = false
	}
	if state.Held.Left && now.Sub(held.left) > keyReleaseTimeout {
		state.Held.Left = false
	}
	if state.Held.Right && now.Sub(held.right) > keyReleaseTimeout {
		state.Held.Right = false
	}
}

func handleEvent(ev inputthread.Event, state *inputthread.State, ctrl *camera.Controller, held *heldTimestamps) bool {
	if ev.ReadErr != nil {
		state.QuitRequested = true
		return true
	}
	switch ev.Key {
	case inputthread.KeyEsc:
		state.QuitRequested = true
	case inputthread.KeyTab:
		state.ShowHUD = !state.ShowHUD
	case inputthread.KeyUp:
		ctrl.Cam.AdjustPitch(0.05)
	case inputthread.KeyDown:
		ctrl.Cam.AdjustPitch(-0.05)
	case inputthread.KeyLeft:
		ctrl.Cam.AdjustYaw(-0.05)
	case inputthread.KeyRight:
		ctrl.Cam.AdjustYaw(0.05)
	case inputthread.KeyChar:
		handleChar(ev.Rune, state, ctrl, held)
	}
	return state.QuitRequested
}

func handleChar(r rune, state *inputthread.State, ctrl *camera.Controller, held *heldTimestamps) {
	now := time.Now()
	switch r {
	case 'q', 'Q':
		state.QuitRequested = true
	case 'w', 'W':
		state.Held.Forward, held.forward = true, now
	case 's', 'S':
		state.Held.Back, held.back = true, now
	case 'a', 'A':
		state.Held.Left, held.left = true, now
	case 'd', 'D':
		state.Held.Right, held.right = true, now
	case ' ':
		ctrl.AutoOrbit = !ctrl.AutoOrbit
		if ctrl.AutoOrbit {
			ctrl.SyncOrbitFromCamera()
		}
	case '+', '=':
		ctrl.MoveSpeed *= 1.25
	case '-', '_':
		ctrl.MoveSpeed /= 1.25
	case 'r', 'R':
		resetCamera(ctrl)
	case 'm', 'M':
		// Reserved for cycling presentation modes once more than one is
		// implemented; halfblock is the only mode in scope today.
	}
}

func resetCamera(ctrl *camera.Controller) {
	ctrl.Cam.Position = mathutil.Vec3{X: 0, Y: 0, Z: 5}
	ctrl.Cam.LookAt(mathutil.Vec3Zero)
	ctrl.MoveSpeed = 3.0
	ctrl.AutoOrbit = false
	ctrl.SyncOrbitFromCamera()
}

func cameraModeName(ctrl *camera.Controller) string {
	if ctrl.AutoOrbit {
		return "Orbit"
	}
	return "Free"
}

const halfPi = 1.5707964

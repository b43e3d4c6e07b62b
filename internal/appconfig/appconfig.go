// Package appconfig parses the command-line invocation into a Config.
package appconfig

import (
	"flag"
	"fmt"
)

// Backend selects the rendering back-end.
type Backend int

const (
	BackendAuto Backend = iota // try GPU, fall back to CPU on failure
	BackendCPU
	BackendGPU
)

// Config holds every setting the CLI accepts, per the external-interfaces
// section of the scene-viewing surface.
type Config struct {
	ScenePath   string // empty when Demo is set
	Demo        bool
	Backend     Backend
	FlipY       bool
	FlipZ       bool
	Supersample int
	Verbose     bool
}

// Parse parses args (normally os.Args[1:]) into a Config.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("splatview", flag.ContinueOnError)

	demo := fs.Bool("demo", false, "render a built-in procedural scene instead of loading a file")
	cpu := fs.Bool("cpu", false, "force the CPU rendering back-end")
	gpu := fs.Bool("gpu", false, "force the GPU rendering back-end")
	flipY := fs.Bool("flip-y", false, "mirror the scene across the Y axis on load")
	flipZ := fs.Bool("flip-z", false, "mirror the scene across the Z axis on load")
	supersample := fs.Int("supersample", 1, "supersampling factor for halfblock mode (1-3)")
	verbose := fs.Bool("v", false, "verbose diagnostic output to stderr")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: splatview [options] [scene.splat|scene.ply]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *cpu && *gpu {
		return Config{}, fmt.Errorf("appconfig: --cpu and --gpu are mutually exclusive")
	}

	cfg := Config{
		Demo:        *demo,
		FlipY:       *flipY,
		FlipZ:       *flipZ,
		Supersample: *supersample,
		Verbose:     *verbose,
	}
	switch {
	case *cpu:
		cfg.Backend = BackendCPU
	case *gpu:
		cfg.Backend = BackendGPU
	default:
		cfg.Backend = BackendAuto
	}

	if cfg.Demo {
		if fs.NArg() > 0 {
			return Config{}, fmt.Errorf("appconfig: --demo does not take a scene path")
		}
	} else {
		switch fs.NArg() {
		case 0:
			cfg.Demo = true
		case 1:
			cfg.ScenePath = fs.Arg(0)
		default:
			return Config{}, fmt.Errorf("appconfig: expected at most one scene path (or --demo), got %d", fs.NArg())
		}
	}

	if cfg.Supersample < 1 || cfg.Supersample > 3 {
		return Config{}, fmt.Errorf("appconfig: --supersample must be between 1 and 3, got %d", cfg.Supersample)
	}

	return cfg, nil
}

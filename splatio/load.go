package splatio

import (
	"fmt"
	"path/filepath"
	"strings"

	"splatterm/splat"
)

// Load dispatches on path's extension to the matching scene-file parser.
func Load(path string) (*splat.Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".splat":
		return LoadDotSplat(path)
	case ".ply":
		return LoadPLY(path)
	default:
		return nil, fmt.Errorf("splatio: unrecognized scene file extension %q", filepath.Ext(path))
	}
}

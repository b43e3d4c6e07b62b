package display

import (
	"fmt"
	"strings"
)

// Stats is the set of live values the HUD reports each frame.
type Stats struct {
	FPS                       float64
	VisibleSplats             int
	TotalSplats               int
	CameraX, CameraY, CameraZ float32
	MoveSpeed                 float32
	CameraMode                string
	RenderMode                string
	Backend                   string
	Supersample               int
	TermCols, TermRows        int
	Workers                   int
	GPUStatus                 string // "", "OK", "DISABLED", or "ERR:<message>"
}

// RenderHUD formats the top status line and bottom control-hint line,
// truncated/padded to width columns, as raw ANSI text ready to be written
// immediately after a frame's body.
func RenderHUD(s Stats, controlHints string) string {
	var top strings.Builder
	fmt.Fprintf(&top, "FPS:%5.1f  Splats:%d/%d  Pos:(%6.2f,%6.2f,%6.2f)  Speed:%.2f  Cam:%s  Mode:%s  Backend:%s  SS:%dx [%dx%d]  Cores:%d",
		s.FPS, s.VisibleSplats, s.TotalSplats,
		s.CameraX, s.CameraY, s.CameraZ,
		s.MoveSpeed, s.CameraMode, s.RenderMode, s.Backend,
		s.Supersample, s.TermCols*s.Supersample, s.TermRows*2*s.Supersample,
		s.Workers,
	)
	if s.GPUStatus != "" {
		fmt.Fprintf(&top, "  GPU:%s", s.GPUStatus)
	}

	topLine := truncateAndPad(top.String(), s.TermCols)
	bottomLine := truncateAndPad(controlHints, s.TermCols)

	var out strings.Builder
	fmt.Fprintf(&out, "\x1b[1;1H\x1b[40m\x1b[38;2;245;245;245m%s\x1b[0m", topLine)
	fmt.Fprintf(&out, "\x1b[%d;1H\x1b[40m\x1b[38;2;220;220;220m%s\x1b[0m", s.TermRows, bottomLine)
	return out.String()
}

func truncateAndPad(text string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return text + strings.Repeat(" ", width-len(runes))
}

// FreeCamControls and OrbitCamControls are the bottom-line hint strings for
// the two camera modes, shown by the HUD.
const (
	FreeCamControls  = "WASD:Move  Arrows:Look  +/-:Speed  Space:Orbit  Tab:HUD  R:Reset  Q/Esc:Quit"
	OrbitCamControls = "+/-:Speed  Space:Free cam  Tab:HUD  R:Reset  Q/Esc:Quit"
)

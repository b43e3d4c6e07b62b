package inputthread

import "splatterm/camera"

// HeldMovementKeys tracks which WASD movement keys are currently down,
// since a tty in raw mode reports discrete press events, not key-up: a
// key stays "held" until the caller's frame loop releases it, which it
// does once no press or key-repeat for that key has arrived within a
// short timeout.
type HeldMovementKeys struct {
	Forward, Back, Left, Right bool
}

// State accumulates the held-key set and pending quit/HUD-toggle signals
// between frames.
type State struct {
	Held          HeldMovementKeys
	QuitRequested bool
	ShowHUD       bool
}

// NewState returns a State with the HUD visible by default.
func NewState() *State {
	return &State{ShowHUD: true}
}

// ApplyHeldMovement advances the camera by the held-key set scaled by
// dt and the controller's configured speed.
func ApplyHeldMovement(s *State, ctrl *camera.Controller, dt float32) {
	step := ctrl.MoveSpeed * maxf(dt, 0)
	if step <= 0 {
		return
	}

	forward := boolDelta(s.Held.Forward, s.Held.Back)
	right := boolDelta(s.Held.Right, s.Held.Left)

	if forward != 0 {
		ctrl.Cam.MoveForward(forward * step)
	}
	if right != 0 {
		ctrl.Cam.MoveRight(right * step)
	}
}

func boolDelta(positive, negative bool) float32 {
	var p, n float32
	if positive {
		p = 1
	}
	if negative {
		n = 1
	}
	return p - n
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

package inputthread

import (
	"bytes"
	"io"
	"testing"
	"time"

	"splatterm/camera"
	"splatterm/internal/mathutil"
)

func TestDecodeArrowKeySequence(t *testing.T) {
	r := Start(bytes.NewReader([]byte{0x1b, '[', 'A', 'w', 0x1b, '[', 'D'}))
	defer r.Stop()

	want := []Key{KeyUp, KeyChar, KeyLeft}
	for i, w := range want {
		select {
		case ev := <-r.Events():
			if ev.Key != w {
				t.Fatalf("event %d: expected %v, got %v", i, w, ev.Key)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d: timed out waiting for decode", i)
		}
	}
}

func TestDecodeBareEscIsKeyEsc(t *testing.T) {
	r := Start(bytes.NewReader([]byte{0x1b}))
	defer r.Stop()
	select {
	case ev := <-r.Events():
		if ev.Key != KeyEsc {
			t.Fatalf("expected KeyEsc, got %v", ev.Key)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestReaderPublishesReadErrOnEOF(t *testing.T) {
	r := Start(bytes.NewReader(nil))
	defer r.Stop()
	select {
	case ev := <-r.Events():
		if ev.ReadErr != io.EOF {
			t.Fatalf("expected io.EOF, got %v", ev.ReadErr)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestApplyHeldMovementScalesWithDeltaTime(t *testing.T) {
	cam := camera.New(mathutil.Vec3{Z: 5}, 0, 0)
	ctrl := camera.NewController(cam)
	ctrl.MoveSpeed = 2

	state := NewState()
	state.Held.Forward = true

	start := cam.Position
	ApplyHeldMovement(state, ctrl, 0.016)
	d1 := cam.Position.Sub(start).Length()

	cam2 := camera.New(mathutil.Vec3{Z: 5}, 0, 0)
	ctrl2 := camera.NewController(cam2)
	ctrl2.MoveSpeed = 2
	state2 := NewState()
	state2.Held.Forward = true

	start2 := cam2.Position
	ApplyHeldMovement(state2, ctrl2, 0.032)
	d2 := cam2.Position.Sub(start2).Length()

	diff := d2 - d1*2
	if diff < 0 {
		diff = -diff
	}
	if diff > 1e-4 {
		t.Fatalf("expected distance to scale linearly with dt: d1=%v d2=%v", d1, d2)
	}
}

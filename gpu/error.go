package gpu

import "fmt"

// RenderErrorKind classifies a RenderError for the caller's fallback
// decision: Timeout and CommandFailed mean "disable the GPU backend for
// the rest of the session"; OverflowDeferred means "retry next frame with
// more capacity, GPU stays enabled".
type RenderErrorKind int

const (
	KindOther RenderErrorKind = iota
	KindDisabled
	KindTimeout
	KindCommandFailed
	KindOverflowDeferred
)

// RenderError reports why a single render attempt failed, mirroring the
// original Metal backend's error enum one field set at a time.
type RenderError struct {
	Kind              RenderErrorKind
	Stage             string
	TimeoutMs         int64
	RequestedCapacity int
	Overlaps          uint32
	Msg               string
}

func (e *RenderError) Error() string {
	switch e.Kind {
	case KindDisabled:
		return "gpu: backend is disabled for this session"
	case KindTimeout:
		return fmt.Sprintf("gpu: command timeout at %s after %dms", e.Stage, e.TimeoutMs)
	case KindCommandFailed:
		return fmt.Sprintf("gpu: command failed at %s", e.Stage)
	case KindOverflowDeferred:
		return fmt.Sprintf("gpu: overlap overflow deferred (requested_capacity=%d, overlaps=%d)", e.RequestedCapacity, e.Overlaps)
	default:
		return "gpu: " + e.Msg
	}
}

// ShouldDisableGPU reports whether the error should permanently fall back
// to the CPU back-end rather than being retried.
func (e *RenderError) ShouldDisableGPU() bool {
	switch e.Kind {
	case KindDisabled, KindTimeout, KindCommandFailed:
		return true
	default:
		return false
	}
}

func errDisabled() error { return &RenderError{Kind: KindDisabled} }

func errTimeout(stage string, timeoutMs int64) error {
	return &RenderError{Kind: KindTimeout, Stage: stage, TimeoutMs: timeoutMs}
}

func errCommandFailed(stage string) error {
	return &RenderError{Kind: KindCommandFailed, Stage: stage}
}

func errOverflowDeferred(requestedCapacity int, overlaps uint32) error {
	return &RenderError{Kind: KindOverflowDeferred, RequestedCapacity: requestedCapacity, Overlaps: overlaps}
}

func errOther(msg string) error {
	return &RenderError{Kind: KindOther, Msg: msg}
}

package ports

import "time"

// FrameID identifies a pending frame request.
type FrameID uint64

// FrameScheduler is the per-frame scheduling primitive.
// Each request fires at most once, on the next displayed frame.
type FrameScheduler interface {
	// RequestFrame schedules cb for the next frame. now is the frame timestamp.
	RequestFrame(cb func(now time.Time)) FrameID

	// CancelFrame drops a pending request. Unknown or already fired IDs are ignored.
	CancelFrame(id FrameID)
}

// Visibility is the page-visibility signal of the host window.
type Visibility interface {
	Hidden() bool

	// OnVisibilityChange registers fn, called after every change, and returns a function removing it.
	OnVisibilityChange(fn func()) (remove func())
}

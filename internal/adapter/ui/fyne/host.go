// Package fyne provides the Fyne desktop host of the TuneScope player:
// the main window, the track list, and the platform hooks the energy loop
// needs (display frames, visibility and pixel ratio).
package fyne

import (
	"math"
	"strconv"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/frame"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
	"github.com/tejashwikalptaru/tunescope/internal/sizing"
)

// AnimationScheduler fires frame requests from a Fyne animation, which
// ticks once per displayed frame on the UI goroutine.
type AnimationScheduler struct {
	driven *frame.Driven
	anim   *fyneapp.Animation

	mu      sync.Mutex
	running bool
}

// NewAnimationScheduler creates a stopped scheduler.
func NewAnimationScheduler() *AnimationScheduler {
	s := &AnimationScheduler{driven: frame.NewDriven()}
	s.anim = &fyneapp.Animation{
		Duration:    time.Second,
		RepeatCount: fyneapp.AnimationRepeatForever,
		Curve:       fyneapp.AnimationLinear,
		Tick: func(float32) {
			s.driven.Fire(time.Now())
		},
	}
	return s
}

// Start begins ticking. Requests made before Start wait for the first tick.
func (s *AnimationScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.anim.Start()
}

// Stop ends ticking. Pending requests stay queued until the next Start.
func (s *AnimationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.anim.Stop()
}

func (s *AnimationScheduler) RequestFrame(cb func(now time.Time)) ports.FrameID {
	return s.driven.RequestFrame(cb)
}

func (s *AnimationScheduler) CancelFrame(id ports.FrameID) {
	s.driven.CancelFrame(id)
}

// WatchLifecycle hides vis while the app is in the background.
func WatchLifecycle(app fyneapp.App, vis *frame.Visibility) {
	lc := app.Lifecycle()
	lc.SetOnExitedForeground(func() { vis.SetHidden(true) })
	lc.SetOnEnteredForeground(func() { vis.SetHidden(false) })
}

// MaxDPRSource returns the saved document-level DPR cap.
type MaxDPRSource interface {
	GetMaxDPR() (dpr float64, ok bool)
}

// CanvasEnv reads the device pixel ratio from a window canvas scale.
// Override is the global cap (NaN when unset); prefs holds the saved cap.
type CanvasEnv struct {
	window   fyneapp.Window
	override float64
	prefs    MaxDPRSource
}

// NewCanvasEnv creates a sizing env for window. prefs may be nil.
func NewCanvasEnv(window fyneapp.Window, override float64, prefs MaxDPRSource) *CanvasEnv {
	return &CanvasEnv{window: window, override: override, prefs: prefs}
}

func (e *CanvasEnv) DevicePixelRatio() float64 {
	if e.window == nil || e.window.Canvas() == nil {
		return 1
	}
	return float64(e.window.Canvas().Scale())
}

func (e *CanvasEnv) MaxDPROverride() float64 {
	return e.override
}

func (e *CanvasEnv) MaxDPRAttribute() string {
	if e.prefs == nil {
		return ""
	}
	dpr, ok := e.prefs.GetMaxDPR()
	if !ok || math.IsNaN(dpr) {
		return ""
	}
	return strconv.FormatFloat(dpr, 'f', -1, 64)
}

var (
	_ ports.FrameScheduler = (*AnimationScheduler)(nil)
	_ sizing.Env           = (*CanvasEnv)(nil)
)

package mock

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

type listener struct {
	fn func()
}

// Element is a mock media element. Time only advances through SimulateProgress.
type Element struct {
	platform *Platform

	mu        sync.Mutex
	src       string
	loadedSrc string
	loads     int
	duration  time.Duration
	position  time.Duration
	paused    bool
	loop      bool
	rate      float64
	volume    float64
	closed    bool
	listeners map[string][]*listener
}

func (e *Element) SetSource(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = url
}

func (e *Element) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// Load "decodes" the source: duration becomes the platform's configured duration.
func (e *Element) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	failLoad, _, _, duration := e.platform.flags()

	e.mu.Lock()
	src := e.src
	if src == "" {
		e.mu.Unlock()
		return domain.NewAudioEngineError("load", "", "no source", domain.ErrNoSource)
	}
	if failLoad {
		e.mu.Unlock()
		e.emit(ports.MediaEventError)
		return domain.NewAudioEngineError("load", src, "mock load failed", domain.ErrUnsupportedFormat)
	}
	wasPlaying := !e.paused
	e.loadedSrc = src
	e.loads++
	e.duration = duration
	e.position = 0
	e.paused = true
	e.mu.Unlock()

	if wasPlaying {
		e.emit(ports.MediaEventPause)
	}
	return nil
}

// Play starts playback, loading first when the source changed.
func (e *Element) Play(ctx context.Context) error {
	e.mu.Lock()
	needLoad := e.loadedSrc == "" || e.loadedSrc != e.src
	e.mu.Unlock()

	if needLoad {
		if err := e.Load(ctx); err != nil {
			return err
		}
	}

	_, failPlay, _, _ := e.platform.flags()
	if failPlay {
		return domain.NewAudioEngineError("play", e.Source(), "mock playback rejected", nil)
	}

	e.mu.Lock()
	wasPaused := e.paused
	e.paused = false
	e.mu.Unlock()

	if wasPaused {
		e.emit(ports.MediaEventPlay)
	}
	return nil
}

func (e *Element) Pause() {
	e.mu.Lock()
	was := !e.paused
	e.paused = true
	e.mu.Unlock()

	if was {
		e.emit(ports.MediaEventPause)
	}
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// SetCurrentTime stores t clamped to [0, Duration].
func (e *Element) SetCurrentTime(t time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = max(0, min(t, e.duration))
}

func (e *Element) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Element) SetLoop(loop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = loop
}

func (e *Element) Loop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop
}

func (e *Element) SetPlaybackRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rate = rate
}

func (e *Element) PlaybackRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

func (e *Element) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
}

func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Loads returns how many times the element loaded a source.
func (e *Element) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

// Metadata derives the title from the source's base name.
func (e *Element) Metadata() domain.TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	base := path.Base(e.loadedSrc)
	return domain.TrackInfo{
		Source:   e.loadedSrc,
		Title:    strings.TrimSuffix(base, path.Ext(base)),
		Duration: e.duration,
	}
}

func (e *Element) AddEventListener(event string, fn func()) func() {
	l := &listener{fn: fn}

	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], l)
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		ls := e.listeners[event]
		for i, x := range ls {
			if x == l {
				e.listeners[event] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of listeners registered for event.
func (e *Element) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

func (e *Element) emit(event string) {
	e.mu.Lock()
	ls := append([]*listener(nil), e.listeners[event]...)
	e.mu.Unlock()

	for _, l := range ls {
		l.fn()
	}
}

// SimulateProgress advances playback by delta, ending or looping at the end.
func (e *Element) SimulateProgress(delta time.Duration) {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	e.position += time.Duration(float64(delta) * e.rate)
	if e.position < e.duration {
		e.mu.Unlock()
		return
	}
	if e.loop {
		e.position %= max(e.duration, 1)
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.SimulateEnded()
}

// SimulateEnded jumps to the end and fires pause and ended synchronously.
func (e *Element) SimulateEnded() {
	e.mu.Lock()
	e.position = e.duration
	e.paused = true
	e.mu.Unlock()

	e.emit(ports.MediaEventPause)
	e.emit(ports.MediaEventEnded)
}

func (e *Element) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.paused = true
	e.listeners = make(map[string][]*listener)
	return nil
}

// Closed reports whether Close was called.
func (e *Element) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

var _ ports.MediaElement = (*Element)(nil)

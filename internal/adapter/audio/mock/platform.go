// Package mock provides a mock implementation of the AudioPlatform interface.
// This is used for testing the engine and analysers without a sound card.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// DefaultDuration is the duration every loaded mock source reports.
const DefaultDuration = 3 * time.Minute

// Platform is a mock implementation of the AudioPlatform interface.
// It records every element and context it creates so tests can inspect them.
//
// Thread-safety: This implementation is thread-safe.
type Platform struct {
	logger *slog.Logger

	mu        sync.Mutex
	available bool
	duration  time.Duration
	elements  []*Element
	contexts  []*Context
	streams   []*Stream

	// Behavior configuration (for testing error scenarios)
	failElement bool
	failContext bool
	failLoad    bool
	failPlay    bool
	failResume  bool
}

// NewPlatform creates an available mock platform.
func NewPlatform() *Platform {
	return &Platform{
		logger:    slog.Default(),
		available: true,
		duration:  DefaultDuration,
	}
}

// SetLogger sets the logger for this platform.
func (p *Platform) SetLogger(logger *slog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// SetAvailable simulates a host with or without audio output.
func (p *Platform) SetAvailable(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.available = available
}

// SetDuration sets the duration reported by sources loaded afterwards.
func (p *Platform) SetDuration(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duration = d
}

// SetFailElement configures the mock to fail element creation (for testing).
func (p *Platform) SetFailElement(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failElement = fail
}

// SetFailContext configures the mock to fail context creation (for testing).
func (p *Platform) SetFailContext(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failContext = fail
}

// SetFailLoad configures elements to fail loading (for testing).
func (p *Platform) SetFailLoad(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failLoad = fail
}

// SetFailPlay configures elements to reject playback (for testing).
func (p *Platform) SetFailPlay(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failPlay = fail
}

// SetFailResume configures contexts to fail resuming (for testing).
func (p *Platform) SetFailResume(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failResume = fail
}

// Available reports whether the simulated output exists.
func (p *Platform) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// NewMediaElement creates a paused mock element.
func (p *Platform) NewMediaElement() (ports.MediaElement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.available {
		return nil, domain.ErrPlatformUnavailable
	}
	if p.failElement {
		return nil, domain.NewAudioEngineError("createElement", "", "mock element creation failed", nil)
	}

	el := &Element{
		platform:  p,
		paused:    true,
		rate:      1,
		volume:    1,
		listeners: make(map[string][]*listener),
	}
	p.elements = append(p.elements, el)
	return el, nil
}

// NewAudioContext creates a suspended mock context.
func (p *Platform) NewAudioContext() (ports.AudioContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.available {
		return nil, domain.ErrPlatformUnavailable
	}
	if p.failContext {
		return nil, domain.NewAudioEngineError("createContext", "", "mock context creation failed", nil)
	}

	c := &Context{platform: p, state: ports.ContextSuspended}
	c.dest = &Node{ctx: c, Kind: "destination"}
	p.contexts = append(p.contexts, c)
	return c, nil
}

// Elements returns every element created so far.
func (p *Platform) Elements() []*Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Element(nil), p.elements...)
}

// Contexts returns every context created so far.
func (p *Platform) Contexts() []*Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Context(nil), p.contexts...)
}

func (p *Platform) flags() (failLoad, failPlay, failResume bool, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failLoad, p.failPlay, p.failResume, p.duration
}

var _ ports.AudioPlatform = (*Platform)(nil)

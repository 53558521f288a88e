package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// Standalone analyser settings.
const (
	StandaloneFFTSize   = 1024
	StandaloneSmoothing = 0.8
)

// EnergyAnalyser is an independent context with its own analyser, used to
// measure a media element or live stream outside the engine's graph.
type EnergyAnalyser struct {
	ctx      ports.AudioContext
	analyser ports.AnalyserNode

	mu       sync.Mutex
	data     []byte
	disposed bool
}

// NewElementAnalyser analyses el. The element is captured by the new context
// and stays audible through it.
func NewElementAnalyser(platform ports.AudioPlatform, el ports.MediaElement) (*EnergyAnalyser, error) {
	return newEnergyAnalyser(platform, func(c ports.AudioContext) (ports.AudioNode, error) {
		return c.CreateMediaElementSource(el)
	})
}

// NewStreamAnalyser analyses a live stream such as a microphone capture.
func NewStreamAnalyser(platform ports.AudioPlatform, stream ports.LiveStream) (*EnergyAnalyser, error) {
	return newEnergyAnalyser(platform, func(c ports.AudioContext) (ports.AudioNode, error) {
		return c.CreateStreamSource(stream)
	})
}

func newEnergyAnalyser(
	platform ports.AudioPlatform,
	newSource func(ports.AudioContext) (ports.AudioNode, error),
) (*EnergyAnalyser, error) {
	if !platform.Available() {
		return nil, domain.ErrPlatformUnavailable
	}

	c, err := platform.NewAudioContext()
	if err != nil {
		return nil, fmt.Errorf("create audio context: %w", err)
	}

	a, err := buildAnalyserGraph(c, newSource)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return &EnergyAnalyser{
		ctx:      c,
		analyser: a,
		data:     make([]byte, a.FrequencyBinCount()),
	}, nil
}

func buildAnalyserGraph(
	c ports.AudioContext,
	newSource func(ports.AudioContext) (ports.AudioNode, error),
) (ports.AnalyserNode, error) {
	a, err := c.CreateAnalyser()
	if err != nil {
		return nil, fmt.Errorf("create analyser: %w", err)
	}
	if err := a.SetFFTSize(StandaloneFFTSize); err != nil {
		return nil, err
	}
	a.SetSmoothingTimeConstant(StandaloneSmoothing)

	src, err := newSource(c)
	if err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	if err := src.Connect(a); err != nil {
		return nil, err
	}
	if err := a.Connect(c.Destination()); err != nil {
		return nil, err
	}
	if err := c.Resume(context.Background()); err != nil {
		return nil, fmt.Errorf("resume audio context: %w", err)
	}
	return a, nil
}

// Energy returns the mean frequency bin value scaled to [0,1].
// A disposed analyser reports 0.
func (a *EnergyAnalyser) Energy() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed || len(a.data) == 0 {
		return 0
	}

	a.analyser.ByteFrequencyData(a.data)
	var sum float64
	for _, v := range a.data {
		sum += float64(v)
	}
	return max(0, min(1, sum/(float64(len(a.data))*255)))
}

// Analyser exposes the underlying node for callers needing raw spectra.
func (a *EnergyAnalyser) Analyser() ports.AnalyserNode {
	return a.analyser
}

// Dispose closes the context. Further calls are no-ops.
func (a *EnergyAnalyser) Dispose() error {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return nil
	}
	a.disposed = true
	a.mu.Unlock()

	return a.ctx.Close()
}

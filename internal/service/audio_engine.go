// Package service provides the playback engine, the energy metrics loop and
// the music library of the TuneScope player.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunescope/internal/blob"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// Analyser settings used by the engine's graph.
const (
	EngineFFTSize   = 2048
	EngineSmoothing = 0.8
)

type endedCallback struct {
	fn func()
}

// AudioEngine plays one source at a time through a fixed graph:
// element source -> analyser -> gain -> destination.
//
// The element, context and nodes are created lazily on first Load and reused
// afterwards. Cached state survives element re-creation and is re-applied.
//
// Thread-safety: all methods are safe for concurrent use. Element methods that
// raise media events are always called without e.mu held, since the listeners
// registered here take e.mu.
type AudioEngine struct {
	// Dependencies (injected)
	logger   *slog.Logger
	platform ports.AudioPlatform
	blobs    *blob.Store
	bus      ports.EventBus

	mu    sync.Mutex
	state domain.PlaybackState
	track domain.TrackInfo

	element  ports.MediaElement
	removers []func()

	audioCtx ports.AudioContext
	source   ports.AudioNode
	analyser ports.AnalyserNode
	gain     ports.GainNode

	freqData []byte
	timeData []byte

	objectURL string
	ended     []*endedCallback
	closed    bool
}

// NewAudioEngine creates an engine. Nothing touches the platform until the first Load.
func NewAudioEngine(
	logger *slog.Logger,
	platform ports.AudioPlatform,
	blobs *blob.Store,
	bus ports.EventBus,
) *AudioEngine {
	e := &AudioEngine{
		logger:   logger.With(slog.String("component", "engine")),
		platform: platform,
		blobs:    blobs,
		bus:      bus,
		state:    domain.DefaultPlaybackState(),
	}
	e.logger.Debug("audio engine initialized", slog.Bool("platform_available", platform.Available()))
	return e
}

// Available reports whether the platform can play audio at all.
func (e *AudioEngine) Available() bool {
	return e.platform.Available()
}

// ensureElementLocked creates the media element and applies the cached state.
// Caller holds e.mu.
func (e *AudioEngine) ensureElementLocked() (ports.MediaElement, error) {
	if e.element != nil {
		return e.element, nil
	}
	el, err := e.platform.NewMediaElement()
	if err != nil {
		return nil, err
	}
	el.SetLoop(e.state.Loop)
	el.SetPlaybackRate(e.state.Rate)
	el.SetVolume(e.state.Volume)

	e.removers = append(e.removers,
		el.AddEventListener(ports.MediaEventPlay, func() { e.onElementPlay(el) }),
		el.AddEventListener(ports.MediaEventPause, func() { e.onElementPause(el) }),
		el.AddEventListener(ports.MediaEventEnded, func() { e.onElementEnded(el) }),
	)
	e.element = el
	e.logger.Debug("media element created")
	return el, nil
}

// ensureGraphLocked builds whatever part of the graph is missing and
// (re)connects every edge. Connecting an existing edge has no effect.
// Caller holds e.mu.
func (e *AudioEngine) ensureGraphLocked() error {
	el, err := e.ensureElementLocked()
	if err != nil {
		return err
	}

	if e.audioCtx == nil {
		c, err := e.platform.NewAudioContext()
		if err != nil {
			return err
		}
		e.audioCtx = c
	}
	if e.source == nil {
		src, err := e.audioCtx.CreateMediaElementSource(el)
		if err != nil {
			return err
		}
		e.source = src
	}
	if e.gain == nil {
		g, err := e.audioCtx.CreateGain()
		if err != nil {
			return err
		}
		g.SetGain(e.state.Volume)
		e.gain = g
	}
	if e.analyser == nil {
		a, err := e.audioCtx.CreateAnalyser()
		if err != nil {
			return err
		}
		if err := a.SetFFTSize(EngineFFTSize); err != nil {
			return err
		}
		a.SetSmoothingTimeConstant(EngineSmoothing)
		e.analyser = a
		e.freqData = make([]byte, a.FrequencyBinCount())
		e.timeData = make([]byte, a.FFTSize())
	}

	if err := e.source.Connect(e.analyser); err != nil {
		return err
	}
	if err := e.analyser.Connect(e.gain); err != nil {
		return err
	}
	return e.gain.Connect(e.audioCtx.Destination())
}

// Load assigns a new source and loads it. It does nothing when the platform
// has no audio output. A file source becomes a blob URL owned by the engine;
// the previous one is revoked first.
func (e *AudioEngine) Load(ctx context.Context, source domain.TrackSource) error {
	if !e.platform.Available() {
		e.logger.Debug("load skipped, audio platform unavailable", slog.String("source", source.String()))
		return nil
	}
	if source.IsZero() {
		return domain.NewAudioEngineError("load", "", "empty source", domain.ErrNoSource)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return domain.ErrEngineClosed
	}
	if err := e.ensureGraphLocked(); err != nil {
		if e.element == nil {
			e.mu.Unlock()
			return domain.NewAudioEngineError("load", source.String(), "failed to create media element", err)
		}
		e.logger.Warn("audio graph incomplete, analyser data unavailable", slog.Any("error", err))
	}
	el := e.element

	if e.objectURL != "" {
		e.blobs.RevokeObjectURL(e.objectURL)
		e.objectURL = ""
	}
	url := source.URL
	if source.IsFile() {
		url = e.blobs.CreateObjectURL(*source.File)
		e.objectURL = url
	}
	el.SetSource(url)
	e.mu.Unlock()

	e.logger.Debug("loading source", slog.String("source", source.String()))

	if err := el.Load(ctx); err != nil {
		e.logger.Debug("failed to load source", slog.Any("error", err))
		e.bus.Publish(domain.NewTrackErrorEvent(source.String(), err))
		return err
	}

	info := el.Metadata()
	if source.IsFile() {
		info.Source = source.File.Name
	}
	e.mu.Lock()
	e.track = info
	e.mu.Unlock()

	e.bus.Publish(domain.NewTrackLoadedEvent(info))
	return nil
}

// Play resumes a suspended context and starts playback. It does nothing before
// the first Load. A rejected start is returned wrapping domain.ErrPlaybackRejected.
func (e *AudioEngine) Play(ctx context.Context) error {
	e.mu.Lock()
	el := e.element
	if el == nil || e.closed {
		e.mu.Unlock()
		return nil
	}
	if err := e.ensureGraphLocked(); err != nil {
		e.logger.Warn("audio graph incomplete", slog.Any("error", err))
	}
	actx := e.audioCtx
	e.mu.Unlock()

	if actx != nil && actx.State() == ports.ContextSuspended {
		if err := actx.Resume(ctx); err != nil {
			return fmt.Errorf("%w: resume audio context: %w", domain.ErrPlaybackRejected, err)
		}
	}

	if err := el.Play(ctx); err != nil {
		e.logger.Debug("playback rejected", slog.Any("error", err))
		e.bus.Publish(domain.NewTrackErrorEvent(el.Source(), err))
		return fmt.Errorf("%w: %w", domain.ErrPlaybackRejected, err)
	}

	e.mu.Lock()
	e.state.Playing = true
	e.mu.Unlock()
	return nil
}

// Pause pauses playback. It does nothing before the first Load.
func (e *AudioEngine) Pause() {
	e.mu.Lock()
	el := e.element
	e.mu.Unlock()
	if el == nil {
		return
	}

	el.Pause()

	e.mu.Lock()
	e.state.Playing = false
	e.mu.Unlock()
}

// Seek moves the playback position, clamped to [0, Duration].
func (e *AudioEngine) Seek(t time.Duration) {
	e.mu.Lock()
	el := e.element
	e.mu.Unlock()
	if el == nil {
		return
	}
	el.SetCurrentTime(max(0, min(t, el.Duration())))
}

// SetRate sets the playback rate. Non-positive and non-finite rates are ignored.
func (e *AudioEngine) SetRate(rate float64) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		e.logger.Warn("ignoring invalid playback rate", slog.Float64("rate", rate))
		return
	}

	e.mu.Lock()
	e.state.Rate = rate
	if e.element != nil {
		e.element.SetPlaybackRate(rate)
	}
	e.mu.Unlock()

	e.bus.Publish(domain.NewRateChangedEvent(rate))
}

// SetLoop enables or disables looping.
func (e *AudioEngine) SetLoop(loop bool) {
	e.mu.Lock()
	e.state.Loop = loop
	if e.element != nil {
		e.element.SetLoop(loop)
	}
	e.mu.Unlock()

	e.bus.Publish(domain.NewLoopToggledEvent(loop))
}

// SetVolume sets the volume on both the element and the gain node.
// The value is clamped to [0,1]; NaN is ignored.
func (e *AudioEngine) SetVolume(volume float64) {
	if math.IsNaN(volume) {
		e.logger.Warn("ignoring NaN volume")
		return
	}
	volume = max(0, min(1, volume))

	e.mu.Lock()
	e.state.Volume = volume
	if e.gain != nil {
		e.gain.SetGain(volume)
	}
	if e.element != nil {
		e.element.SetVolume(volume)
	}
	e.mu.Unlock()

	e.bus.Publish(domain.NewVolumeChangedEvent(volume))
}

// FrequencyData returns the current byte spectrum, or nil before the analyser
// exists. The slice is shared and overwritten by the next call.
func (e *AudioEngine) FrequencyData() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.analyser == nil || e.freqData == nil {
		return nil
	}
	e.analyser.ByteFrequencyData(e.freqData)
	return e.freqData
}

// TimeDomainData returns the current waveform bytes, or nil before the
// analyser exists. The slice is shared and overwritten by the next call.
func (e *AudioEngine) TimeDomainData() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.analyser == nil || e.timeData == nil {
		return nil
	}
	e.analyser.ByteTimeDomainData(e.timeData)
	return e.timeData
}

// OnEnded registers cb to run every time playback reaches the end.
// Callbacks run in registration order. The returned function unregisters cb.
func (e *AudioEngine) OnEnded(cb func()) (unsubscribe func()) {
	c := &endedCallback{fn: cb}

	e.mu.Lock()
	e.ended = append(e.ended, c)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, x := range e.ended {
				if x == c {
					e.ended = append(e.ended[:i:i], e.ended[i+1:]...)
					return
				}
			}
		})
	}
}

// Duration returns the length of the loaded source, 0 before any load.
func (e *AudioEngine) Duration() time.Duration {
	e.mu.Lock()
	el := e.element
	e.mu.Unlock()
	if el == nil {
		return 0
	}
	return el.Duration()
}

// CurrentTime returns the playback position, 0 before any load.
func (e *AudioEngine) CurrentTime() time.Duration {
	e.mu.Lock()
	el := e.element
	e.mu.Unlock()
	if el == nil {
		return 0
	}
	return el.CurrentTime()
}

// State returns a copy of the cached playback state.
func (e *AudioEngine) State() domain.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Track returns metadata of the last successfully loaded source.
func (e *AudioEngine) Track() domain.TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.track
}

// Close releases the blob URL, the element and the audio context.
// Calling Close more than once is a no-op.
func (e *AudioEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	removers := e.removers
	el, actx, url := e.element, e.audioCtx, e.objectURL
	e.removers, e.objectURL = nil, ""
	e.state.Playing = false
	e.ended = nil
	e.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	if url != "" {
		e.blobs.RevokeObjectURL(url)
	}

	var errs []error
	if el != nil {
		el.Pause()
		if err := el.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close media element: %w", err))
		}
	}
	if actx != nil {
		if err := actx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audio context: %w", err))
		}
	}
	e.logger.Debug("audio engine closed")
	return errors.Join(errs...)
}

func (e *AudioEngine) onElementPlay(el ports.MediaElement) {
	e.mu.Lock()
	e.state.Playing = true
	e.mu.Unlock()

	e.bus.Publish(domain.NewTrackStartedEvent(el.CurrentTime()))
}

func (e *AudioEngine) onElementPause(el ports.MediaElement) {
	e.mu.Lock()
	e.state.Playing = false
	e.mu.Unlock()

	e.bus.Publish(domain.NewTrackPausedEvent(el.CurrentTime()))
}

func (e *AudioEngine) onElementEnded(el ports.MediaElement) {
	e.mu.Lock()
	e.state.Playing = false
	callbacks := append([]*endedCallback(nil), e.ended...)
	source := e.track.Source
	e.mu.Unlock()

	e.logger.Debug("playback ended", slog.String("source", source))
	for _, c := range callbacks {
		c.fn()
	}
	e.bus.Publish(domain.NewTrackEndedEvent(source))
}

// SampleSource supplies analyser buffers to the energy loop.
// Both methods return nil while no analyser exists.
type SampleSource interface {
	FrequencyData() []byte
	TimeDomainData() []byte
}

var _ SampleSource = (*AudioEngine)(nil)

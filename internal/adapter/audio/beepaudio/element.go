package beepaudio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

type listener struct {
	fn func()
}

// element is a media element backed by a beep decoder.
//
// Its samples are pulled either by the output directly or, once captured,
// by a media element source node. Volume is applied only on the direct path;
// a captured element is scaled by the graph's gain node instead.
type element struct {
	platform *Platform
	logger   *slog.Logger

	mu        sync.Mutex
	src       string
	loadedSrc string
	decoder   beep.StreamSeekCloser
	format    beep.Format
	resampler *beep.Resampler
	info      domain.TrackInfo

	paused   bool
	loop     bool
	rate     float64
	volume   float64
	captured bool
	attached bool
	closed   bool

	listeners map[string][]*listener
}

func newElement(p *Platform) *element {
	return &element{
		platform:  p,
		logger:    p.logger.With(slog.String("node", "element")),
		paused:    true,
		rate:      1,
		volume:    1,
		listeners: make(map[string][]*listener),
	}
}

// SetSource assigns a new source URL.
func (e *element) SetSource(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = url
}

// Source returns the assigned source URL.
func (e *element) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// Load fetches and decodes the current source, replacing the previous decoder.
// Playback stops and the position resets to zero.
func (e *element) Load(ctx context.Context) error {
	e.mu.Lock()
	src, closed := e.src, e.closed
	e.mu.Unlock()

	if closed {
		return domain.NewAudioEngineError("load", src, "element closed", domain.ErrContextClosed)
	}
	if src == "" {
		return domain.NewAudioEngineError("load", "", "no source", domain.ErrNoSource)
	}

	file, err := e.platform.fetch(ctx, src)
	if err != nil {
		e.emit(ports.MediaEventError)
		return domain.NewAudioEngineError("load", src, "fetch failed", err)
	}
	dec, format, err := decode(file.Name, file.Data)
	if err != nil {
		e.emit(ports.MediaEventError)
		return domain.NewAudioEngineError("load", src, "decode failed", err)
	}
	info := readMetadata(src, file.Name, file.Data)
	info.Duration = format.SampleRate.D(dec.Len())

	e.mu.Lock()
	if e.src != src || e.closed {
		// superseded by a newer SetSource while fetching
		e.mu.Unlock()
		_ = dec.Close()
		return nil
	}
	old := e.decoder
	wasPlaying := !e.paused
	e.decoder, e.format, e.info, e.loadedSrc = dec, format, info, src
	e.resampler = beep.ResampleRatio(resampleQuality, e.ratio(), dec)
	e.paused = true
	e.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			e.logger.Warn("failed to close previous decoder", slog.Any("error", err))
		}
	}
	if wasPlaying {
		e.emit(ports.MediaEventPause)
	}

	e.logger.Debug("source loaded",
		slog.String("src", src),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.Duration("duration", info.Duration))
	return nil
}

// Play starts playback, loading the source first when it changed.
func (e *element) Play(ctx context.Context) error {
	e.mu.Lock()
	needLoad := e.decoder == nil || e.loadedSrc != e.src
	e.mu.Unlock()

	if needLoad {
		if err := e.Load(ctx); err != nil {
			return err
		}
	}

	e.mu.Lock()
	if e.closed || e.decoder == nil {
		e.mu.Unlock()
		return domain.NewAudioEngineError("play", e.Source(), "nothing to play", domain.ErrNoSource)
	}
	if e.decoder.Position() >= e.decoder.Len() {
		e.seekLocked(0)
	}
	wasPaused := e.paused
	e.paused = false
	attach := !e.captured && !e.attached
	if attach {
		e.attached = true
	}
	e.mu.Unlock()

	// Outside e.mu: the output goroutine takes the output lock before e.mu.
	if attach {
		e.platform.output.Play(directRoute{e})
	}
	if wasPaused {
		e.emit(ports.MediaEventPlay)
	}
	return nil
}

// Pause pauses playback.
func (e *element) Pause() {
	e.mu.Lock()
	was := !e.paused
	e.paused = true
	e.mu.Unlock()

	if was {
		e.emit(ports.MediaEventPause)
	}
}

func (e *element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *element) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.decoder == nil {
		return 0
	}
	return e.format.SampleRate.D(e.decoder.Position())
}

// SetCurrentTime seeks, clamping t to [0, Duration].
func (e *element) SetCurrentTime(t time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.decoder == nil {
		return
	}
	n := e.format.SampleRate.N(t)
	n = max(0, min(n, e.decoder.Len()))
	e.seekLocked(n)
}

// seekLocked moves the decoder to sample n and drops the resampler's buffered input.
func (e *element) seekLocked(n int) {
	if err := e.decoder.Seek(n); err != nil {
		e.logger.Warn("seek failed", slog.Int("sample", n), slog.Any("error", err))
		return
	}
	e.resampler = beep.ResampleRatio(resampleQuality, e.ratio(), e.decoder)
}

func (e *element) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.decoder == nil {
		return 0
	}
	return e.format.SampleRate.D(e.decoder.Len())
}

func (e *element) SetLoop(loop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = loop
}

// SetPlaybackRate changes the speed. Non-positive or non-finite rates are ignored.
func (e *element) SetPlaybackRate(rate float64) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rate = rate
	if e.resampler != nil {
		e.resampler.SetRatio(e.ratio())
	}
}

// ratio converts decoder samples to output samples at the current rate. Caller holds e.mu.
func (e *element) ratio() float64 {
	if e.format.SampleRate == 0 {
		return e.rate
	}
	return float64(e.format.SampleRate) / float64(e.platform.sampleRate) * e.rate
}

func (e *element) SetVolume(volume float64) {
	if math.IsNaN(volume) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = max(0, min(1, volume))
}

func (e *element) Metadata() domain.TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info
}

// AddEventListener registers fn for event. Listeners run on the goroutine that
// caused the event, or on a fresh goroutine for events raised by the output.
func (e *element) AddEventListener(event string, fn func()) func() {
	l := &listener{fn: fn}

	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], l)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			ls := e.listeners[event]
			for i, x := range ls {
				if x == l {
					e.listeners[event] = append(ls[:i:i], ls[i+1:]...)
					return
				}
			}
		})
	}
}

func (e *element) emit(event string) {
	e.mu.Lock()
	ls := append([]*listener(nil), e.listeners[event]...)
	e.mu.Unlock()

	for _, l := range ls {
		l.fn()
	}
}

// Close releases the decoder and detaches the element from the output.
func (e *element) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.paused = true
	dec := e.decoder
	e.decoder, e.resampler = nil, nil
	e.listeners = make(map[string][]*listener)
	e.mu.Unlock()

	if dec != nil {
		if err := dec.Close(); err != nil {
			return fmt.Errorf("close decoder: %w", err)
		}
	}
	return nil
}

// render fills samples from the decoder. Caller holds e.mu.
// Returns true when the source ended during this call.
func (e *element) render(samples [][2]float64, applyVolume bool) (ended bool) {
	if e.paused || e.resampler == nil {
		clear(samples)
		return false
	}

	filled := 0
	rewound := false
	for filled < len(samples) {
		n, ok := e.resampler.Stream(samples[filled:])
		filled += n
		if n > 0 {
			rewound = false
		}
		if ok && n > 0 {
			continue
		}
		if e.loop && !rewound && e.decoder.Len() > 0 {
			rewound = true
			e.seekLocked(0)
			continue
		}
		if !e.loop {
			e.paused = true
			ended = true
		}
		break
	}
	clear(samples[filled:])

	if applyVolume && e.volume != 1 {
		for i := range samples[:filled] {
			samples[i][0] *= e.volume
			samples[i][1] *= e.volume
		}
	}
	return ended
}

// pull is called by the output or a source node.
func (e *element) pull(samples [][2]float64, direct bool) (n int, ok bool) {
	e.mu.Lock()
	if direct && (e.captured || e.closed) {
		e.attached = false
		e.mu.Unlock()
		return 0, false
	}
	ended := e.render(samples, direct)
	e.mu.Unlock()

	if ended {
		// Listeners may call back into the platform, which would deadlock under the output lock.
		go func() {
			e.emit(ports.MediaEventPause)
			e.emit(ports.MediaEventEnded)
		}()
	}
	return len(samples), true
}

// directRoute plays an uncaptured element straight into the output.
type directRoute struct {
	e *element
}

func (r directRoute) Stream(samples [][2]float64) (int, bool) {
	return r.e.pull(samples, true)
}

func (r directRoute) Err() error { return nil }

var _ ports.MediaElement = (*element)(nil)

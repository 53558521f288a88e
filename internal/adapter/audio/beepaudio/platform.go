// Package beepaudio implements the audio platform on top of gopxl/beep.
//
// Media elements decode whole files into memory and stream them through a
// resampler that also applies the playback rate. Audio contexts are pull-based
// graphs: the output pulls the destination node, which pulls its inputs once
// per render quantum. Everything is mixed into a single Output (the speaker in
// native builds, a PullOutput in tests).
package beepaudio

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// DefaultSampleRate is the output sample rate used unless overridden.
const DefaultSampleRate = 44100

// resampleQuality is the beep resampler quality (1..64).
const resampleQuality = 4

// Platform creates media elements and audio contexts sharing one output.
type Platform struct {
	logger     *slog.Logger
	blobs      BlobResolver
	client     *http.Client
	output     Output
	sampleRate beep.SampleRate
}

// Option configures a Platform.
type Option func(*Platform)

// WithOutput uses o instead of opening the speaker.
func WithOutput(o Output) Option {
	return func(p *Platform) { p.output = o }
}

// WithSampleRate sets the output sample rate.
func WithSampleRate(sr int) Option {
	return func(p *Platform) {
		if sr > 0 {
			p.sampleRate = beep.SampleRate(sr)
		}
	}
}

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Platform) { p.client = c }
}

// NewPlatform creates a platform. Without WithOutput the speaker is opened;
// if that fails the platform reports itself unavailable.
func NewPlatform(logger *slog.Logger, blobs BlobResolver, opts ...Option) *Platform {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Platform{
		logger:     logger.With(slog.String("component", "audio")),
		blobs:      blobs,
		client:     &http.Client{Timeout: 30 * time.Second},
		sampleRate: DefaultSampleRate,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.output == nil {
		out, err := NewSpeakerOutput(p.sampleRate)
		if err != nil {
			p.logger.Warn("audio output unavailable, playback disabled", slog.Any("error", err))
		} else {
			p.output = out
			p.logger.Info("speaker initialized", slog.Int("sample_rate", int(p.sampleRate)))
		}
	}
	return p
}

// Available reports whether an output exists.
func (p *Platform) Available() bool {
	return p.output != nil
}

// SampleRate returns the output sample rate.
func (p *Platform) SampleRate() beep.SampleRate {
	return p.sampleRate
}

// NewMediaElement creates a paused element with no source.
func (p *Platform) NewMediaElement() (ports.MediaElement, error) {
	if !p.Available() {
		return nil, domain.ErrPlatformUnavailable
	}
	return newElement(p), nil
}

// NewAudioContext creates a suspended context attached to the output.
func (p *Platform) NewAudioContext() (ports.AudioContext, error) {
	if !p.Available() {
		return nil, domain.ErrPlatformUnavailable
	}
	c := newAudioContext(p)
	p.output.Play(c)
	return c, nil
}

// Close releases the output.
func (p *Platform) Close() error {
	if p.output == nil {
		return nil
	}
	return p.output.Close()
}

var _ ports.AudioPlatform = (*Platform)(nil)

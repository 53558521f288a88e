// Package ports define interfaces for dependency inversion.
// These interfaces allow the core player logic to remain independent of the audio backend.
package ports

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

// Media element event names accepted by MediaElement.AddEventListener.
const (
	MediaEventPlay  = "play"
	MediaEventPause = "pause"
	MediaEventEnded = "ended"
	MediaEventError = "error"
)

// AudioContextState is the lifecycle state of an AudioContext.
type AudioContextState string

const (
	ContextSuspended AudioContextState = "suspended"
	ContextRunning   AudioContextState = "running"
	ContextClosed    AudioContextState = "closed"
)

// AudioPlatform is the audio decode/playback and graph-processing primitive.
// It abstracts the underlying audio library (beep) and allows for testing with mocks.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioPlatform interface {
	// Available reports whether an audio output exists.
	// When false, callers must degrade to no-ops instead of creating elements.
	Available() bool

	// NewMediaElement creates a detached media element.
	NewMediaElement() (MediaElement, error)

	// NewAudioContext creates a processing graph. The context starts suspended.
	NewAudioContext() (AudioContext, error)
}

// MediaElement plays a single source. It is the equivalent of an HTML audio element:
// until captured by an AudioContext it plays straight to the output.
type MediaElement interface {
	// SetSource assigns a new source URL. The previous decoder is released on the next Load.
	SetSource(url string)

	// Source returns the currently assigned source URL.
	Source() string

	// Load resolves and decodes the current source.
	// Returns domain.ErrNoSource when no source is assigned.
	Load(ctx context.Context) error

	// Play starts playback, loading the source first if needed.
	Play(ctx context.Context) error

	// Pause pauses playback. Safe to call when already paused.
	Pause()

	// Paused reports whether the element is paused.
	Paused() bool

	CurrentTime() time.Duration
	SetCurrentTime(t time.Duration)

	// Duration returns the decoded length, or 0 when nothing is loaded.
	Duration() time.Duration

	SetLoop(loop bool)
	SetPlaybackRate(rate float64)
	SetVolume(volume float64)

	// Metadata returns tag metadata of the loaded source.
	Metadata() domain.TrackInfo

	// AddEventListener registers fn for the named event and returns a function removing it.
	AddEventListener(event string, fn func()) (remove func())

	// Close releases the decoder and detaches the element from the output.
	Close() error
}

// AudioNode is a node of an AudioContext graph.
type AudioNode interface {
	// Connect routes this node's output into dst.
	// Connecting an edge that already exists is a no-op.
	Connect(dst AudioNode) error

	// Disconnect removes every outgoing edge of this node.
	Disconnect()
}

// GainNode scales the signal amplitude.
type GainNode interface {
	AudioNode
	Gain() float64
	SetGain(v float64)
}

// AnalyserNode exposes frequency- and time-domain snapshots of the signal passing through it.
type AnalyserNode interface {
	AudioNode

	FFTSize() int
	// SetFFTSize changes the transform size. Returns domain.ErrInvalidFFTSize for
	// values that are not a power of two between 32 and 32768.
	SetFFTSize(n int) error

	// FrequencyBinCount is always FFTSize()/2.
	FrequencyBinCount() int

	SmoothingTimeConstant() float64
	SetSmoothingTimeConstant(t float64)

	// ByteFrequencyData copies min(len(dst), FrequencyBinCount()) dB-scaled magnitudes into dst.
	ByteFrequencyData(dst []byte)

	// ByteTimeDomainData copies min(len(dst), FFTSize()) waveform samples into dst.
	ByteTimeDomainData(dst []byte)
}

// LiveStream is an audio-producing source that is not a media element
// (a microphone, a generator). It produces stereo samples at the context sample rate.
type LiveStream interface {
	Stream(samples [][2]float64) (n int, ok bool)
	Err() error
}

// DecodedStream is a LiveStream over a decoded file. Done is closed once the
// stream has been drained or closed.
type DecodedStream interface {
	LiveStream
	Done() <-chan struct{}
	Close() error
}

// StreamOpener is implemented by platforms that can decode a source into a
// LiveStream at their output sample rate.
type StreamOpener interface {
	OpenStream(ctx context.Context, src string) (DecodedStream, error)
}

// AudioContext is a graph-based audio processing primitive.
type AudioContext interface {
	State() AudioContextState

	// Resume starts pulling audio through the graph.
	Resume(ctx context.Context) error

	// Close stops the graph and detaches it from the output. Idempotent.
	Close() error

	SampleRate() int

	// Destination is the node that feeds the platform output.
	Destination() AudioNode

	// CreateMediaElementSource captures el so it only plays through this graph.
	// An element can be captured once.
	CreateMediaElementSource(el MediaElement) (AudioNode, error)

	CreateStreamSource(s LiveStream) (AudioNode, error)
	CreateGain() (GainNode, error)
	CreateAnalyser() (AnalyserNode, error)
}

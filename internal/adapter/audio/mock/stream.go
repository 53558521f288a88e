package mock

import (
	"context"
	"sync"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// StreamSampleRate is the rate mock streams count their duration in.
const StreamSampleRate = 44100

// Stream is a silent decoded stream lasting the platform duration.
type Stream struct {
	Source string

	mu        sync.Mutex
	remaining int
	closed    bool
	done      chan struct{}
	once      sync.Once
}

// OpenStream returns a silent stream for src. Fails like Load when
// SetFailLoad is set.
func (p *Platform) OpenStream(_ context.Context, src string) (ports.DecodedStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.available {
		return nil, domain.ErrPlatformUnavailable
	}
	if p.failLoad {
		return nil, domain.NewAudioEngineError("openStream", src, "mock stream open failed", nil)
	}

	s := &Stream{
		Source:    src,
		remaining: int(p.duration.Seconds() * StreamSampleRate),
		done:      make(chan struct{}),
	}
	p.streams = append(p.streams, s)
	return s, nil
}

// Streams returns every stream opened so far.
func (p *Platform) Streams() []*Stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Stream(nil), p.streams...)
}

// Stream writes silence until the duration is used up.
func (s *Stream) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.remaining <= 0 {
		s.finish()
		return 0, false
	}
	n := min(len(samples), s.remaining)
	clear(samples[:n])
	s.remaining -= n
	return n, true
}

func (s *Stream) Err() error {
	return nil
}

func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.finish()
	return nil
}

func (s *Stream) finish() {
	s.once.Do(func() { close(s.done) })
}

var _ ports.StreamOpener = (*Platform)(nil)

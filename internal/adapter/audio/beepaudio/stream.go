package beepaudio

import (
	"context"
	"errors"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// fileStream plays a decoded file as a live stream at the platform rate.
type fileStream struct {
	decoder beep.StreamSeekCloser
	stream  beep.Streamer

	done chan struct{}
	once sync.Once
}

// OpenStream fetches and decodes src into a stream resampled to the output
// rate. src takes the same forms as a media element source.
func (p *Platform) OpenStream(ctx context.Context, src string) (ports.DecodedStream, error) {
	file, err := p.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	decoder, format, err := decode(file.Name, file.Data)
	if err != nil {
		return nil, err
	}

	s := &fileStream{decoder: decoder, stream: decoder, done: make(chan struct{})}
	if format.SampleRate != p.sampleRate {
		s.stream = beep.Resample(resampleQuality, format.SampleRate, p.sampleRate, decoder)
	}
	return s, nil
}

func (s *fileStream) Stream(samples [][2]float64) (int, bool) {
	n, ok := s.stream.Stream(samples)
	if !ok {
		s.finish()
	}
	return n, ok
}

func (s *fileStream) Err() error {
	return errors.Join(s.stream.Err(), s.decoder.Err())
}

func (s *fileStream) Done() <-chan struct{} {
	return s.done
}

func (s *fileStream) Close() error {
	s.finish()
	return s.decoder.Close()
}

func (s *fileStream) finish() {
	s.once.Do(func() { close(s.done) })
}

var _ ports.StreamOpener = (*Platform)(nil)

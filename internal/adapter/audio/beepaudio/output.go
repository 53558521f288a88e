package beepaudio

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Output is the sink every element and context is mixed into.
// Play registers a streamer until it reports !ok. Lock/Unlock guard
// state read by streamers on the output goroutine, the way speaker.Lock does.
type Output interface {
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close() error
}

// PullOutput is an Output driven by the caller instead of a sound card.
// Samples are produced only when Pull is called. Used by headless tests.
type PullOutput struct {
	mu        sync.Mutex
	streamers []beep.Streamer
	tmp       [][2]float64
}

// NewPullOutput creates an empty pull-driven output.
func NewPullOutput() *PullOutput {
	return &PullOutput{}
}

// Play adds s to the mix.
func (o *PullOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.streamers = append(o.streamers, s)
	o.mu.Unlock()
}

func (o *PullOutput) Lock()   { o.mu.Lock() }
func (o *PullOutput) Unlock() { o.mu.Unlock() }

// Pull mixes n samples from every registered streamer.
// Streamers that are drained are dropped from the mix.
func (o *PullOutput) Pull(n int) [][2]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([][2]float64, n)
	if cap(o.tmp) < n {
		o.tmp = make([][2]float64, n)
	}
	tmp := o.tmp[:n]

	kept := o.streamers[:0]
	for _, s := range o.streamers {
		clear(tmp)
		got, ok := s.Stream(tmp)
		for i := 0; i < got; i++ {
			out[i][0] += tmp[i][0]
			out[i][1] += tmp[i][1]
		}
		if ok && got == n {
			kept = append(kept, s)
		}
	}
	clear(o.streamers[len(kept):])
	o.streamers = kept
	return out
}

// Streamers returns the number of streamers currently mixed.
func (o *PullOutput) Streamers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streamers)
}

// Close drops every streamer.
func (o *PullOutput) Close() error {
	o.mu.Lock()
	o.streamers = nil
	o.mu.Unlock()
	return nil
}

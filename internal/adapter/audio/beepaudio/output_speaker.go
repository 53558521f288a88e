//go:build (linux && cgo) || windows || darwin

package beepaudio

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// SpeakerAvailable indicates whether this build can open the sound card.
const SpeakerAvailable = true

type speakerOutput struct{}

// NewSpeakerOutput initializes the process-wide speaker at sr with a 100ms buffer.
func NewSpeakerOutput(sr beep.SampleRate) (Output, error) {
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, err
	}
	return speakerOutput{}, nil
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }

func (speakerOutput) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

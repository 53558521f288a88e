//go:build !((linux && cgo) || windows || darwin)

package beepaudio

import (
	"github.com/gopxl/beep/v2"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

// SpeakerAvailable indicates whether this build can open the sound card.
// Native output needs cgo on this platform.
const SpeakerAvailable = false

// NewSpeakerOutput always fails in builds without native audio.
func NewSpeakerOutput(beep.SampleRate) (Output, error) {
	return nil, domain.ErrPlatformUnavailable
}

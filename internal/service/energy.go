package service

import (
	"math"
	"time"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

// Energy metric constants.
const (
	// EnergyTau is the time constant of the smoothed overall energy.
	EnergyTau = 150 * time.Millisecond

	// MinFrameDelta is the smallest frame delta used for smoothing.
	MinFrameDelta = time.Millisecond
)

// Frequency bands as bin index ranges [Start, End). With a 2048-point FFT at
// 44.1kHz the bands cover roughly 0-344Hz, 344-1378Hz and 1378-5512Hz.
// The indices stay fixed whatever the analyser size.
var (
	BassBand = Band{Start: 0, End: 16}
	MidBand  = Band{Start: 16, End: 64}
	HighBand = Band{Start: 64, End: 256}
)

// Band is a half-open range of frequency bins.
type Band struct {
	Start int
	End   int
}

// BucketEnergy returns the RMS of freq[start:end] normalised to [0,1].
// Bins past the end of freq contribute nothing but still count in the mean.
func BucketEnergy(freq []byte, start, end int) float64 {
	var sum float64
	for i := start; i < end && i < len(freq); i++ {
		v := float64(freq[i])
		sum += v * v
	}
	return math.Sqrt(sum/float64(max(1, end-start))) / 255
}

// TimeDomainRMS returns the RMS of waveform bytes centred on 128.
func TimeDomainRMS(td []byte) float64 {
	if len(td) == 0 {
		return 0
	}
	var sum float64
	for _, b := range td {
		v := (float64(b) - 128) / 128
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(td)))
}

// SmoothTowards moves current towards target by 1-exp(-dt/tau).
// The result always lies between current and target.
func SmoothTowards(current, target float64, dt, tau time.Duration) float64 {
	if tau <= 0 {
		return target
	}
	a := 1 - math.Exp(-dt.Seconds()/tau.Seconds())
	return current + a*(target-current)
}

// ComputeEnergy derives one snapshot from analyser buffers. prev is the
// previous smoothed energy and dt the time since the previous frame.
func ComputeEnergy(freq, td []byte, prev float64, dt time.Duration) domain.EnergySnapshot {
	bass := BucketEnergy(freq, BassBand.Start, BassBand.End)
	mid := BucketEnergy(freq, MidBand.Start, MidBand.End)
	high := BucketEnergy(freq, HighBand.Start, HighBand.End)
	rms := TimeDomainRMS(td)

	return domain.EnergySnapshot{
		RMS:    rms,
		Bass:   bass,
		Mid:    mid,
		High:   high,
		Peak:   max(bass, mid, high),
		Energy: SmoothTowards(prev, max(0, min(1, rms)), max(dt, MinFrameDelta), EnergyTau),
	}
}

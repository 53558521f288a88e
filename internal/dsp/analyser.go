// Package dsp implements the spectrum analyser behind analyser graph nodes.
//
// The analyser keeps the most recent FFTSize mono samples in a ring buffer.
// Frequency data is a Blackman-windowed FFT of that window, converted to
// magnitudes, smoothed over time and mapped from decibels to bytes.
// Time-domain data maps each sample in [-1,1] to a byte centred on 128.
package dsp

import (
	"fmt"
	"math"
	"math/bits"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

// Analyser defaults.
const (
	DefaultFFTSize        = 2048
	DefaultSmoothing      = 0.8
	DefaultMinDecibels    = -100.0
	DefaultMaxDecibels    = -30.0
	MinFFTSize            = 32
	MaxFFTSize            = 32768
	byteTimeDomainCentre  = 128.0
	byteFrequencyMaxValue = 255.0
)

// Analyser computes frequency and time-domain snapshots of a mono signal.
//
// Thread-safety: Write is called from the audio goroutine while reads happen
// on the UI goroutine, so every method locks.
type Analyser struct {
	mu sync.Mutex

	fftSize   int
	smoothing float64

	ring []float64 // last fftSize samples
	pos  int       // next write index into ring

	fft      *fourier.FFT
	windowed []float64
	coeffs   []complex128
	smoothed []float64 // previous smoothed magnitude per bin
}

// NewAnalyser creates an analyser with the default FFT size and smoothing.
func NewAnalyser() *Analyser {
	a := &Analyser{
		smoothing: DefaultSmoothing,
	}
	a.resize(DefaultFFTSize)
	return a
}

// ValidFFTSize reports whether n is a power of two between MinFFTSize and MaxFFTSize.
func ValidFFTSize(n int) bool {
	return n >= MinFFTSize && n <= MaxFFTSize && bits.OnesCount(uint(n)) == 1
}

func (a *Analyser) resize(n int) {
	a.fftSize = n
	a.ring = make([]float64, n)
	a.pos = 0
	a.fft = fourier.NewFFT(n)
	a.windowed = make([]float64, n)
	a.coeffs = make([]complex128, n/2+1)
	a.smoothed = make([]float64, n/2)
}

// FFTSize returns the transform size.
func (a *Analyser) FFTSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fftSize
}

// SetFFTSize changes the transform size, discarding buffered samples and smoothing history.
func (a *Analyser) SetFFTSize(n int) error {
	if !ValidFFTSize(n) {
		return fmt.Errorf("fft size %d: %w", n, domain.ErrInvalidFFTSize)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if n != a.fftSize {
		a.resize(n)
	}
	return nil
}

// FrequencyBinCount returns FFTSize()/2.
func (a *Analyser) FrequencyBinCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fftSize / 2
}

// SmoothingTimeConstant returns the averaging constant between frames.
func (a *Analyser) SmoothingTimeConstant() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.smoothing
}

// SetSmoothingTimeConstant sets the averaging constant, clamped to [0,1].
func (a *Analyser) SetSmoothingTimeConstant(t float64) {
	if math.IsNaN(t) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.smoothing = clamp(t, 0, 1)
}

// Write appends mono samples to the analysis window.
func (a *Analyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.ring)
	if len(samples) >= n {
		copy(a.ring, samples[len(samples)-n:])
		a.pos = 0
		return
	}
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % n
	}
}

// ordered copies the ring buffer oldest-first into dst, which must have len(ring).
func (a *Analyser) ordered(dst []float64) {
	k := copy(dst, a.ring[a.pos:])
	copy(dst[k:], a.ring[:a.pos])
}

// ByteFrequencyData writes min(len(dst), FrequencyBinCount()) magnitudes scaled to
// 0..255 over DefaultMinDecibels..DefaultMaxDecibels.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.computeSpectrum()
	scale := byteFrequencyMaxValue / (DefaultMaxDecibels - DefaultMinDecibels)
	n := min(len(dst), len(a.smoothed))
	for i := 0; i < n; i++ {
		v := scale * (toDecibels(a.smoothed[i]) - DefaultMinDecibels)
		dst[i] = byte(clamp(math.Floor(v), 0, byteFrequencyMaxValue))
	}
}

// ByteTimeDomainData writes min(len(dst), FFTSize()) of the most recent samples,
// mapped so that 0 becomes 128 and full scale becomes 0 or 255.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ordered(a.windowed)
	n := min(len(dst), len(a.windowed))
	for i := 0; i < n; i++ {
		v := byteTimeDomainCentre * (1 + a.windowed[i])
		dst[i] = byte(clamp(math.Floor(v), 0, byteFrequencyMaxValue))
	}
}

// computeSpectrum updates a.smoothed from the current window. Caller holds a.mu.
func (a *Analyser) computeSpectrum() {
	a.ordered(a.windowed)
	window.Blackman(a.windowed)
	a.coeffs = a.fft.Coefficients(a.coeffs, a.windowed)

	norm := 1 / float64(a.fftSize)
	tau := a.smoothing
	for i := range a.smoothed {
		c := a.coeffs[i]
		mag := math.Hypot(real(c), imag(c)) * norm
		s := tau*a.smoothed[i] + (1-tau)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[i] = s
	}
}

func toDecibels(mag float64) float64 {
	if mag <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(mag)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package sizing keeps one source of truth for raster sizing: the observed
// content box of a host widget and the effective device pixel ratio.
package sizing

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

// DefaultMaxDPR caps the device pixel ratio when nothing else is configured.
const DefaultMaxDPR = 2.0

// Env exposes the values that influence the effective DPR.
type Env interface {
	// DevicePixelRatio returns the screen scale; values <= 0 mean unknown.
	DevicePixelRatio() float64

	// MaxDPROverride returns the global override. It only applies when finite.
	MaxDPROverride() float64

	// MaxDPRAttribute returns the document-level cap as text; "" when unset.
	MaxDPRAttribute() string
}

// StaticEnv is an Env with fixed values. The zero value has no override.
type StaticEnv struct {
	Device    float64
	Override  float64
	Attribute string
}

// NewStaticEnv returns an env with the given device ratio and no caps.
func NewStaticEnv(device float64) StaticEnv {
	return StaticEnv{Device: device, Override: math.NaN()}
}

func (e StaticEnv) DevicePixelRatio() float64 { return e.Device }
func (e StaticEnv) MaxDPROverride() float64   { return e.Override }
func (e StaticEnv) MaxDPRAttribute() string   { return e.Attribute }

// EffectiveDPR returns min(device ratio, cap). The cap is the global
// override when finite, else the document attribute when set, else maxCap.
// A cap that is NaN, unparsable or <= 0 falls back to maxCap.
func EffectiveDPR(env Env, maxCap float64) float64 {
	if !(maxCap > 0) || math.IsInf(maxCap, 0) {
		maxCap = DefaultMaxDPR
	}

	limit := maxCap
	if env != nil {
		if override := env.MaxDPROverride(); !math.IsNaN(override) && !math.IsInf(override, 0) {
			limit = override
		} else if attr := strings.TrimSpace(env.MaxDPRAttribute()); attr != "" {
			v, err := strconv.ParseFloat(attr, 64)
			if err != nil {
				v = math.NaN()
			}
			limit = v
		}
	}
	if !(limit > 0) {
		limit = maxCap
	}

	device := 1.0
	if env != nil {
		if d := env.DevicePixelRatio(); d > 0 && !math.IsInf(d, 0) {
			device = d
		}
	}
	return math.Min(device, limit)
}

// Size is an observed content box together with the DPR it should render at.
type Size struct {
	Width  float64
	Height float64
	DPR    float64
}

// Pixels returns the backing raster dimensions.
func (s Size) Pixels() (w, h int) {
	return int(math.Round(s.Width * s.DPR)), int(math.Round(s.Height * s.DPR))
}

// Box is something with a content box that reports changes to it.
type Box interface {
	// ContentSize returns the current width and height in logical units.
	ContentSize() (w, h float64)

	// OnResize registers fn for box changes and returns its remover.
	OnResize(fn func()) (remove func())
}

// Observe calls onSize once immediately and again on every change of box,
// skipping boxes with a zero dimension. The returned dispose stops observing
// and may be called more than once.
func Observe(box Box, env Env, onSize func(Size)) (dispose func()) {
	var (
		mu       sync.Mutex
		disposed bool
	)

	update := func() {
		mu.Lock()
		done := disposed
		mu.Unlock()
		if done {
			return
		}

		w, h := box.ContentSize()
		if w > 0 && h > 0 {
			onSize(Size{Width: w, Height: h, DPR: EffectiveDPR(env, DefaultMaxDPR)})
		}
	}

	remove := box.OnResize(update)
	update()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			disposed = true
			mu.Unlock()
			remove()
		})
	}
}

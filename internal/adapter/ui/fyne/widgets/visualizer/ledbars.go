package visualizer

import (
	"image"
	"image/color"
	"slices"

	"fyne.io/fyne/v2/canvas"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/service"
)

const (
	ledSegments = 16
	ledPadding  = 10

	// ledCapFall is how many segments a cap drops per frame at zero energy.
	ledCapFall = 1.0
	// ledCapHold is the share of ledCapFall cancelled by full smoothed energy.
	ledCapHold = 0.75

	ledLitFloor = 0.35
	ledDimLevel = 0.12
)

var ledCapColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// bandTint colours the bars whose bins fall in band.
type bandTint struct {
	band  service.Band
	color color.RGBA
	level func(e domain.EnergySnapshot) float64
}

var bandTints = []bandTint{
	{service.BassBand, color.RGBA{R: 230, G: 60, B: 60, A: 255}, func(e domain.EnergySnapshot) float64 { return e.Bass }},
	{service.MidBand, color.RGBA{R: 240, G: 200, B: 40, A: 255}, func(e domain.EnergySnapshot) float64 { return e.Mid }},
	{service.HighBand, color.RGBA{R: 60, G: 180, B: 240, A: 255}, func(e domain.EnergySnapshot) float64 { return e.High }},
}

// tintFor returns the tint of the band holding bin. Bins above the high band
// share its tint.
func tintFor(bin int) bandTint {
	for _, t := range bandTints {
		if bin < t.band.End {
			return t
		}
	}
	return bandTints[len(bandTints)-1]
}

// LEDBars draws the byte spectrum as segmented bars. Each bar takes the tint
// of the energy band its bins sit in and glows with that band's energy. Peak
// caps fall more slowly while the smoothed energy is high.
type LEDBars struct {
	BaseVisualizer

	numBars int
	caps    []float64 // in segments

	freq FrequencyAnalyzer
	draw DrawingUtils
}

// NewLEDBars creates a new LED bars visualizer widget.
func NewLEDBars(numBars ...int) *LEDBars {
	bars := 32
	if len(numBars) > 0 && numBars[0] > 0 {
		bars = numBars[0]
	}

	v := &LEDBars{
		numBars: bars,
		caps:    make([]float64, bars),
	}
	v.Raster = canvas.NewRaster(v.render)
	v.ExtendBaseWidget(v)
	return v
}

// Reset clears the frame and drops every cap.
func (v *LEDBars) Reset() {
	v.Mu.Lock()
	clear(v.caps)
	v.Mu.Unlock()

	v.BaseVisualizer.Reset()
}

func (v *LEDBars) render(w, h int) image.Image {
	w, h = v.RasterSize(w, h)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	v.draw.FillBackground(img, color.Black)

	frame := v.GetFrame()
	if len(frame.Freq) == 0 {
		return img
	}
	layout, ok := newLEDLayout(w, h, v.numBars)
	if !ok {
		return img
	}

	ranges := barRanges(len(frame.Freq), v.numBars)
	lit := v.freq.CalculateBarHeights(frame.Freq, v.numBars, ledSegments)
	caps := v.dropCaps(lit, frame.Energy.Energy)

	for i, r := range ranges {
		tint := tintFor(r.center())
		glow := Scale(tint.color, ledLitFloor+(1-ledLitFloor)*tint.level(frame.Energy))
		dim := Scale(tint.color, ledDimLevel)

		for seg := range ledSegments {
			col := dim
			switch {
			case seg < int(lit[i]):
				col = glow
			case caps[i] >= 1 && seg == int(caps[i]):
				col = ledCapColor
			}
			v.draw.FillRect(img, layout.segment(i, seg), col)
		}
	}
	return img
}

// dropCaps raises caps to the lit height or lets them fall, and returns a copy.
func (v *LEDBars) dropCaps(lit []float32, energy float64) []float64 {
	fall := ledCapFall * (1 - ledCapHold*max(0, min(1, energy)))

	v.Mu.Lock()
	defer v.Mu.Unlock()
	for i, l := range lit {
		if float64(l) > v.caps[i] {
			v.caps[i] = float64(l)
		} else {
			v.caps[i] = max(0, v.caps[i]-fall)
		}
	}
	return slices.Clone(v.caps)
}

// ledLayout places bars and segments inside the padded raster.
type ledLayout struct {
	x0, bottom     int
	barW, barPitch int
	segH, segPitch int
}

func newLEDLayout(w, h, bars int) (ledLayout, bool) {
	innerW := w - 2*ledPadding
	innerH := h - 2*ledPadding
	if bars <= 0 || innerW <= 0 || innerH <= 0 {
		return ledLayout{}, false
	}

	l := ledLayout{
		bottom:   h - ledPadding,
		barPitch: innerW / bars,
		segPitch: innerH / ledSegments,
	}
	l.barW = l.barPitch - max(l.barPitch/5, 1)
	l.segH = l.segPitch - max(l.segPitch/5, 1)
	if l.barW < 1 || l.segH < 1 {
		return ledLayout{}, false
	}

	used := bars*l.barPitch - (l.barPitch - l.barW)
	l.x0 = ledPadding + (innerW-used)/2
	return l, true
}

// segment returns the rectangle of segment seg (0 at the bottom) of bar.
func (l ledLayout) segment(bar, seg int) image.Rectangle {
	x := l.x0 + bar*l.barPitch
	y := l.bottom - seg*l.segPitch
	return image.Rect(x, y-l.segH, x+l.barW, y)
}

var _ MusicVisualizer = (*LEDBars)(nil)

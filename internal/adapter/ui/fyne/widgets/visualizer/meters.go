package visualizer

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2/canvas"
)

const (
	meterPadding = 10
	meterGap     = 8
)

// meter is one column of the energy meters display.
type meter struct {
	value func(f Frame) float64
	color color.RGBA
}

var meters = []meter{
	{func(f Frame) float64 { return f.Energy.Bass }, bandTints[0].color},
	{func(f Frame) float64 { return f.Energy.Mid }, bandTints[1].color},
	{func(f Frame) float64 { return f.Energy.High }, bandTints[2].color},
	{func(f Frame) float64 { return f.Energy.RMS }, color.RGBA{R: 120, G: 220, B: 120, A: 255}},
	{func(f Frame) float64 { return f.Energy.Peak }, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
	{func(f Frame) float64 { return f.Energy.Energy }, color.RGBA{R: 190, G: 90, B: 250, A: 255}},
}

// EnergyMeters draws one bar per energy metric (bass, mid, high, RMS, peak,
// smoothed energy) over a background that glows with the smoothed energy.
type EnergyMeters struct {
	BaseVisualizer

	draw DrawingUtils
}

// NewEnergyMeters creates a new energy meters widget.
func NewEnergyMeters() *EnergyMeters {
	v := &EnergyMeters{}
	v.Raster = canvas.NewRaster(v.render)
	v.ExtendBaseWidget(v)
	return v
}

func (v *EnergyMeters) render(w, h int) image.Image {
	w, h = v.RasterSize(w, h)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	frame := v.GetFrame()
	v.draw.FillBackground(img, Scale(color.RGBA{R: 60, G: 20, B: 90, A: 255}, frame.Energy.Energy))

	innerW := w - 2*meterPadding
	innerH := h - 2*meterPadding
	if innerW <= 0 || innerH <= 0 {
		return img
	}

	barW := (innerW - (len(meters)-1)*meterGap) / len(meters)
	if barW < 1 {
		return img
	}

	bottom := h - meterPadding
	for i, m := range meters {
		x := meterPadding + i*(barW+meterGap)
		v.draw.FillRect(img, image.Rect(x, meterPadding, x+barW, bottom), color.RGBA{R: 25, G: 25, B: 25, A: 255})

		value := m.value(frame)
		if value <= 0 {
			continue
		}
		if value > 1 {
			value = 1
		}
		top := bottom - int(value*float64(innerH))
		v.draw.FillRect(img, image.Rect(x, top, x+barW, bottom), m.color)
	}

	return img
}

var _ MusicVisualizer = (*EnergyMeters)(nil)

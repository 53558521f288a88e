// Package visualizer provides audio visualization widgets for the TuneScope player.
package visualizer

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/sizing"
)

type resizeListener struct {
	fn func()
}

// BaseVisualizer provides common functionality for all visualizers.
// It is designed to be embedded in concrete visualizer implementations.
type BaseVisualizer struct {
	widget.BaseWidget

	Raster *canvas.Raster
	Freq   []byte
	Energy domain.EnergySnapshot
	Mu     sync.RWMutex

	pixelSize    sizing.Size
	hasPixelSize bool

	listenersMu sync.Mutex
	listeners   []*resizeListener
}

// CreateRenderer implements fyne.Widget.
func (v *BaseVisualizer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.Raster)
}

// MinSize returns the minimum size of the visualizer.
func (v *BaseVisualizer) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}

// Resize resizes the widget and notifies resize listeners.
func (v *BaseVisualizer) Resize(size fyne.Size) {
	old := v.Size()
	v.BaseWidget.Resize(size)
	if old == size {
		return
	}

	v.listenersMu.Lock()
	ls := append([]*resizeListener(nil), v.listeners...)
	v.listenersMu.Unlock()

	for _, l := range ls {
		l.fn()
	}
}

// ContentSize implements sizing.Box.
func (v *BaseVisualizer) ContentSize() (w, h float64) {
	s := v.Size()
	return float64(s.Width), float64(s.Height)
}

// OnResize implements sizing.Box.
func (v *BaseVisualizer) OnResize(fn func()) (remove func()) {
	l := &resizeListener{fn: fn}

	v.listenersMu.Lock()
	v.listeners = append(v.listeners, l)
	v.listenersMu.Unlock()

	return func() {
		v.listenersMu.Lock()
		defer v.listenersMu.Unlock()
		for i, x := range v.listeners {
			if x == l {
				v.listeners = append(v.listeners[:i:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}

// SetPixelSize fixes the raster resolution used by render.
func (v *BaseVisualizer) SetPixelSize(size sizing.Size) {
	v.Mu.Lock()
	v.pixelSize, v.hasPixelSize = size, true
	v.Mu.Unlock()

	v.Raster.Refresh()
}

// RasterSize returns the resolution to draw at. Without a pixel size it is
// the size the canvas asked for.
func (v *BaseVisualizer) RasterSize(w, h int) (int, int) {
	v.Mu.RLock()
	defer v.Mu.RUnlock()

	if !v.hasPixelSize {
		return w, h
	}
	pw, ph := v.pixelSize.Pixels()
	if pw <= 0 || ph <= 0 {
		return w, h
	}
	return pw, ph
}

// Update stores a copy of the frame and redraws.
func (v *BaseVisualizer) Update(frame Frame) {
	v.Mu.Lock()
	v.Freq = append(v.Freq[:0], frame.Freq...)
	v.Energy = frame.Energy
	v.Mu.Unlock()

	v.Raster.Refresh()
}

// Reset clears the visualizer state.
func (v *BaseVisualizer) Reset() {
	v.Mu.Lock()
	v.Freq = v.Freq[:0]
	v.Energy = domain.EnergySnapshot{}
	v.Mu.Unlock()

	v.Raster.Refresh()
}

// GetFrame returns a copy of the current frame.
func (v *BaseVisualizer) GetFrame() Frame {
	v.Mu.RLock()
	defer v.Mu.RUnlock()
	return Frame{Freq: append([]byte(nil), v.Freq...), Energy: v.Energy}
}

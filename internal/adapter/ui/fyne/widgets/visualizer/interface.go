package visualizer

import (
	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/sizing"
)

// Type represents the type of visualizer.
type Type string

// Available visualizer types.
const (
	TypeLEDBars      Type = "led_bars"
	TypeEnergyMeters Type = "energy_meters"
)

// Frame is one update for a visualizer: the analyser's byte spectrum and the
// energy snapshot computed from it.
type Frame struct {
	Freq   []byte
	Energy domain.EnergySnapshot
}

// MusicVisualizer defines the interface that all visualizers must implement.
// This allows the main window to switch between different visualizer types.
type MusicVisualizer interface {
	fyne.CanvasObject
	sizing.Box

	// Update draws the next frame. Freq is copied, callers may reuse it.
	Update(frame Frame)

	// SetPixelSize fixes the raster resolution, normally from sizing.Observe.
	SetPixelSize(size sizing.Size)

	// Reset clears the visualizer state.
	Reset()
}

// Factory creates a new visualizer of the specified type.
func Factory(visType Type, numBars int) MusicVisualizer {
	switch visType {
	case TypeEnergyMeters:
		return NewEnergyMeters()
	default:
		return NewLEDBars(numBars)
	}
}

// TypeInfo contains information about a visualizer type.
type TypeInfo struct {
	Type Type
	Name string
}

// GetTypes returns all available visualizer types with their display names.
func GetTypes() []TypeInfo {
	return []TypeInfo{
		{TypeLEDBars, "LED Bars"},
		{TypeEnergyMeters, "Energy Meters"},
	}
}

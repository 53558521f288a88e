package visualizer

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/service"
	"github.com/tejashwikalptaru/tunescope/internal/sizing"
)

func TestFactory(t *testing.T) {
	test.NewApp()

	assert.IsType(t, &LEDBars{}, Factory(TypeLEDBars, 16))
	assert.IsType(t, &EnergyMeters{}, Factory(TypeEnergyMeters, 16))
	assert.IsType(t, &LEDBars{}, Factory("unknown", 16))
	assert.Len(t, GetTypes(), 2)
}

func TestCalculateBarHeights(t *testing.T) {
	var f FrequencyAnalyzer

	freq := make([]byte, 1024)
	for i := range freq {
		freq[i] = 255
	}
	heights := f.CalculateBarHeights(freq, 8, 100)
	require.Len(t, heights, 8)
	for _, h := range heights {
		assert.InDelta(t, 100, h, 0.001)
	}

	assert.Equal(t, []float32{0, 0}, f.CalculateBarHeights(nil, 2, 100))
	assert.Empty(t, f.CalculateBarHeights(freq, 0, 100))
}

func TestCalculateBarHeights_BassOnly(t *testing.T) {
	var f FrequencyAnalyzer

	freq := make([]byte, 1024)
	freq[1] = 255

	heights := f.CalculateBarHeights(freq, 8, 100)
	assert.InDelta(t, 100, heights[0], 0.001)
	for _, h := range heights[1:] {
		assert.Zero(t, h)
	}
}

func TestBaseVisualizer_UpdateCopiesFrequencyData(t *testing.T) {
	test.NewApp()
	v := NewLEDBars(8)

	freq := []byte{1, 2, 3}
	v.Update(Frame{Freq: freq, Energy: domain.EnergySnapshot{Energy: 0.5}})
	freq[0] = 99

	got := v.GetFrame()
	assert.Equal(t, []byte{1, 2, 3}, got.Freq)
	assert.Equal(t, 0.5, got.Energy.Energy)

	v.Reset()
	assert.Empty(t, v.GetFrame().Freq)
}

func TestBaseVisualizer_SizingBox(t *testing.T) {
	test.NewApp()
	v := NewEnergyMeters()

	var got []sizing.Size
	dispose := sizing.Observe(v, sizing.NewStaticEnv(3), func(s sizing.Size) { got = append(got, s) })
	assert.Empty(t, got, "zero-sized widget is not reported")

	v.Resize(fyne.NewSize(200, 100))
	require.Len(t, got, 1)
	assert.Equal(t, sizing.Size{Width: 200, Height: 100, DPR: 2}, got[0])

	v.Resize(fyne.NewSize(200, 100))
	assert.Len(t, got, 1, "same size does not notify")

	dispose()
	v.Resize(fyne.NewSize(300, 100))
	assert.Len(t, got, 1)
}

func TestBaseVisualizer_PixelSizeControlsRaster(t *testing.T) {
	test.NewApp()
	v := NewLEDBars(8)

	img := v.render(50, 40)
	assert.Equal(t, image.Rect(0, 0, 50, 40), img.Bounds())

	v.SetPixelSize(sizing.Size{Width: 100, Height: 50, DPR: 1.5})
	img = v.render(50, 40)
	assert.Equal(t, image.Rect(0, 0, 150, 75), img.Bounds())
}

func filled(n int, b byte) []byte {
	freq := make([]byte, n)
	for i := range freq {
		freq[i] = b
	}
	return freq
}

func TestBarRanges(t *testing.T) {
	ranges := barRanges(256, 4)
	require.Len(t, ranges, 4)
	assert.Equal(t, binRange{1, 1}, ranges[0], "DC bin skipped")
	assert.Equal(t, binRange{2, 6}, ranges[1])
	for i := 1; i < len(ranges); i++ {
		assert.Equal(t, ranges[i-1].hi+1, ranges[i].lo, "ranges are contiguous")
	}
	assert.GreaterOrEqual(t, ranges[3].hi, 254)

	assert.Nil(t, barRanges(1, 4))
	assert.Nil(t, barRanges(256, 0))
}

func TestTintFor(t *testing.T) {
	assert.Equal(t, service.BassBand, tintFor(0).band)
	assert.Equal(t, service.BassBand, tintFor(service.BassBand.End-1).band)
	assert.Equal(t, service.MidBand, tintFor(service.MidBand.Start).band)
	assert.Equal(t, service.HighBand, tintFor(service.HighBand.Start).band)
	assert.Equal(t, service.HighBand, tintFor(900).band, "bins above the high band keep its tint")
}

func TestLEDBars_SegmentsFollowBandEnergy(t *testing.T) {
	test.NewApp()
	v := NewLEDBars(4)

	bass, high := 1.0, 0.5
	v.Update(Frame{
		Freq:   filled(256, 255),
		Energy: domain.EnergySnapshot{Bass: bass, High: high},
	})
	img := v.render(200, 200).(*image.RGBA)

	layout, ok := newLEDLayout(200, 200, 4)
	require.True(t, ok)
	pixel := func(bar, seg int) color.RGBA {
		r := layout.segment(bar, seg)
		return img.RGBAAt(r.Min.X+1, r.Max.Y-1)
	}

	assert.Equal(t, Scale(bandTints[0].color, ledLitFloor+(1-ledLitFloor)*bass), pixel(0, 0))
	assert.Equal(t, Scale(bandTints[1].color, ledLitFloor), pixel(2, 0), "silent mid band keeps the floor")
	assert.Equal(t, Scale(bandTints[2].color, ledLitFloor+(1-ledLitFloor)*high), pixel(3, ledSegments-1))
	assert.NotEqual(t, pixel(0, 0), pixel(2, 0), "bass and mid bars take different tints")
}

func TestLEDBars_UnlitSegmentsAreDim(t *testing.T) {
	test.NewApp()
	v := NewLEDBars(4)

	v.Update(Frame{Freq: filled(256, 0)})
	img := v.render(200, 200).(*image.RGBA)

	layout, ok := newLEDLayout(200, 200, 4)
	require.True(t, ok)
	r := layout.segment(0, 0)
	assert.Equal(t, Scale(bandTints[0].color, ledDimLevel), img.RGBAAt(r.Min.X+1, r.Max.Y-1))
}

func TestLEDBars_CapsFallSlowerWithEnergy(t *testing.T) {
	test.NewApp()

	capAfterDrop := func(energy float64) (float64, *image.RGBA) {
		v := NewLEDBars(4)
		v.Update(Frame{Freq: filled(256, 255)})
		v.render(200, 200)

		v.Update(Frame{Freq: filled(256, 0), Energy: domain.EnergySnapshot{Energy: energy}})
		img := v.render(200, 200).(*image.RGBA)
		return v.caps[0], img
	}

	quiet, img := capAfterDrop(0)
	assert.InDelta(t, ledSegments-ledCapFall, quiet, 1e-9)

	layout, ok := newLEDLayout(200, 200, 4)
	require.True(t, ok)
	r := layout.segment(0, int(quiet))
	assert.Equal(t, ledCapColor, img.RGBAAt(r.Min.X+1, r.Max.Y-1))

	loud, _ := capAfterDrop(1)
	assert.InDelta(t, ledSegments-ledCapFall*(1-ledCapHold), loud, 1e-9)
}

func TestLEDBars_ResetDropsCaps(t *testing.T) {
	test.NewApp()
	v := NewLEDBars(4)

	v.Update(Frame{Freq: filled(256, 255)})
	v.render(200, 200)
	require.NotZero(t, v.caps[0])

	v.Reset()
	assert.Equal(t, []float64{0, 0, 0, 0}, v.caps)
	assert.Empty(t, v.GetFrame().Freq)
}

func TestLEDLayout_TooSmall(t *testing.T) {
	_, ok := newLEDLayout(20, 200, 4)
	assert.False(t, ok)

	_, ok = newLEDLayout(200, 30, 4)
	assert.False(t, ok)
}

func TestEnergyMeters_RenderBars(t *testing.T) {
	test.NewApp()
	v := NewEnergyMeters()

	v.Update(Frame{Energy: domain.EnergySnapshot{Bass: 1}})
	img := v.render(120, 100).(*image.RGBA)

	// The bass column is filled to the top, the mid column is empty.
	bass := img.RGBAAt(meterPadding+1, meterPadding+1)
	assert.Equal(t, meters[0].color, bass)

	barW := (120 - 2*meterPadding - (len(meters)-1)*meterGap) / len(meters)
	mid := img.RGBAAt(meterPadding+barW+meterGap+1, meterPadding+1)
	assert.NotEqual(t, meters[1].color, mid)
}

package visualizer

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// FrequencyAnalyzer maps analyser byte spectra onto bars.
type FrequencyAnalyzer struct{}

// binRange is an inclusive range of spectrum bins.
type binRange struct {
	lo, hi int
}

func (r binRange) center() int {
	return (r.lo + r.hi) / 2
}

// barRanges splits n bins into numBars logarithmic ranges: low bars cover few
// bins, high bars many. The DC bin is skipped.
func barRanges(n, numBars int) []binRange {
	if n < 2 || numBars <= 0 {
		return nil
	}

	last := n - 1
	octaves := math.Log2(float64(last))
	ranges := make([]binRange, numBars)
	b0 := 1

	for x := range numBars {
		b1 := last
		if numBars > 1 {
			b1 = int(math.Pow(2, float64(x)*octaves/float64(numBars-1)))
		}
		b1 = min(max(b1, b0), last)

		ranges[x] = binRange{lo: b0, hi: b1}
		b0 = min(b1+1, last)
	}
	return ranges
}

// CalculateBarHeights converts a byte spectrum to bar heights over barRanges.
// Each bar takes the peak of its bins scaled from 0..255 to 0..maxHeight.
func (FrequencyAnalyzer) CalculateBarHeights(freq []byte, numBars int, maxHeight float64) []float32 {
	heights := make([]float32, numBars)

	for x, r := range barRanges(len(freq), numBars) {
		var peak byte
		for _, b := range freq[r.lo : r.hi+1] {
			peak = max(peak, b)
		}
		heights[x] = float32(float64(peak) / 255 * maxHeight)
	}

	return heights
}

// DrawingUtils provides common drawing operations.
type DrawingUtils struct{}

// FillBackground fills the image with a solid color.
func (DrawingUtils) FillBackground(img *image.RGBA, col color.Color) {
	draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// FillRect fills the rectangle r, clipped to the image.
func (DrawingUtils) FillRect(img *image.RGBA, r image.Rectangle, col color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// Scale multiplies the RGB channels of col by f in [0,1].
func Scale(col color.RGBA, f float64) color.RGBA {
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return color.RGBA{
		R: uint8(float64(col.R) * f),
		G: uint8(float64(col.G) * f),
		B: uint8(float64(col.B) * f),
		A: col.A,
	}
}

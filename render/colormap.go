package render

import (
	"image/color"
	"math"

	"github.com/dipolesim/dipoleserv/dataset"
)

// LUT maps a value in [-vmax, vmax] onto a diverging colormap: -vmax is the
// first row, 0 the middle, vmax the last. NaN is transparent.
func LUT(cmap dataset.Colormap, vmax float64) func(float64) color.Color {
	n := len(cmap)
	colors := make([]color.NRGBA, n)
	for i, c := range cmap {
		colors[i] = color.NRGBA{
			R: to8(c.R),
			G: to8(c.G),
			B: to8(c.B),
			A: to8(c.A),
		}
	}

	return func(v float64) color.Color {
		if n == 0 || math.IsNaN(v) {
			return color.Transparent
		}
		t := 0.5
		if vmax > 0 {
			t = (v/vmax + 1) / 2
		}
		t = math.Max(0, math.Min(1, t))
		return colors[int(math.Round(t*float64(n-1)))]
	}
}

// AbsMax is the symmetric color limit for a set of values.
func AbsMax(vals []float64) float64 {
	m := 0.0
	for _, v := range vals {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func to8(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, f)) * 255))
}

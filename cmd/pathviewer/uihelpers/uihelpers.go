package uihelpers

import (
	"image/color"
	"math"
	"strconv"
)

// ComputeChartDimensions applies the width/height clamp rules used for the paths chart.
// Input: desired raw width (e.g., canvas width). Returns clamped width & height.
func ComputeChartDimensions(rawW int) (int, int) {
	w := rawW
	if w < 800 {
		w = 800
	}
	h := int(float32(w) * 0.45)
	if h < 360 {
		h = 360
	}
	if h > 720 {
		h = 720
	}
	return w, h
}

// OpacityToAlpha maps an opacity in [0,1] to an 8-bit alpha, clamping out-of-range input.
func OpacityToAlpha(opacity float64) uint8 {
	if math.IsNaN(opacity) || opacity <= 0 {
		return 0
	}
	if opacity >= 1 {
		return 255
	}
	return uint8(math.Round(opacity * 255))
}

// palette is the qualitative colour cycle for path lines.
var palette = []color.RGBA{
	{R: 0x63, G: 0x6e, B: 0xfa, A: 0xff},
	{R: 0xef, G: 0x55, B: 0x3b, A: 0xff},
	{R: 0x00, G: 0xcc, B: 0x96, A: 0xff},
	{R: 0xab, G: 0x63, B: 0xfa, A: 0xff},
	{R: 0xff, G: 0xa1, B: 0x5a, A: 0xff},
	{R: 0x19, G: 0xd3, B: 0xf3, A: 0xff},
	{R: 0xff, G: 0x66, B: 0x92, A: 0xff},
	{R: 0xb6, G: 0xe8, B: 0x80, A: 0xff},
	{R: 0xff, G: 0x97, B: 0xff, A: 0xff},
	{R: 0xfe, G: 0xcb, B: 0x52, A: 0xff},
}

// PaletteColor returns the i-th series colour (cycling) with the given alpha.
func PaletteColor(i int, alpha uint8) color.RGBA {
	if i < 0 {
		i = -i
	}
	c := palette[i%len(palette)]
	c.A = alpha
	return c
}

// NiceAxisBounds widens [min,max] by 5% on both sides and rounds outward to
// the order of magnitude of the span. A zero span is widened to 1.
func NiceAxisBounds(min, max float64) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return min, max
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	pad := span * 0.05
	a := min - pad
	b := max + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	return a, b
}

// TickCount picks how many y-axis intervals fit a chart of height h.
func TickCount(h int) int {
	n := h / 80
	if n < 3 {
		return 3
	}
	if n > 10 {
		return 10
	}
	return n
}

// niceStep rounds raw up to 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

// AxisTicks returns evenly spaced ticks on multiples of a nice step, about n
// intervals wide. The first tick is <= min and the last is >= max.
func AxisTicks(min, max float64, n int) []float64 {
	if n < 1 || math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	step := niceStep((max - min) / float64(n))
	first, last := math.Floor(min/step), math.Ceil(max/step)
	out := make([]float64, 0, int(last-first)+1)
	for i := first; i <= last; i++ {
		out = append(out, math.Round(i*step*1e6)/1e6)
	}
	return out
}

// FormatNumericTick gives a compact price/step label.
func FormatNumericTick(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 100:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	case av >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	case av >= 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case av == 0:
		return "0"
	default:
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
}

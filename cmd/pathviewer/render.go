package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	png "image/png"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/KamilKalowski/mc-sim/cmd/pathviewer/uihelpers"
	"github.com/KamilKalowski/mc-sim/src/config"
	"github.com/KamilKalowski/mc-sim/src/logging"
)

var errNoData = errors.New("no rows to plot")

// lineStyle draws a thin line without dots.
func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 1.2,
		StrokeColor: col,
		DotWidth:    0,
	}
}

func toDrawing(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// chartSize returns the configured size, else one derived from the window width.
func chartSize(state *uiState) (int, int) {
	rawW := 1100
	if state != nil && state.window != nil && state.window.Canvas() != nil {
		// ~95% of the window, minus room for scrollbars/padding
		rawW = int(state.window.Canvas().Size().Width*0.95) - 12
	}
	w, h := uihelpers.ComputeChartDimensions(rawW)
	if state != nil && state.cfg != nil {
		if state.cfg.Width > 0 {
			w = state.cfg.Width
		}
		if state.cfg.Height > 0 {
			h = state.cfg.Height
		}
	}
	return w, h
}

// buildPathsChart assembles one semi-transparent line per path, x=step, y=price.
func buildPathsChart(state *uiState) (chart.Chart, error) {
	series := state.table.GroupByPath()
	if len(series) == 0 {
		return chart.Chart{}, errNoData
	}
	title, opacity := config.DefaultTitle, 0.4
	if state.cfg != nil {
		title, opacity = state.cfg.Title, state.cfg.Opacity
	}
	alpha := uihelpers.OpacityToAlpha(opacity)

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	out := make([]chart.Series, 0, len(series))
	for i, s := range series {
		for _, x := range s.Steps {
			minX = math.Min(minX, x)
			maxX = math.Max(maxX, x)
		}
		st := lineStyle(toDrawing(uihelpers.PaletteColor(i, alpha)))
		if len(s.Steps) == 1 {
			// a lone point has no segment to stroke
			st.DotWidth = 3
			st.DotColor = st.StrokeColor
		}
		out = append(out, chart.ContinuousSeries{
			Name:    fmt.Sprintf("path %d", s.Path),
			XValues: s.Steps,
			YValues: s.Prices,
			Style:   st,
		})
	}
	if maxX <= minX {
		maxX = minX + 1
	}
	lo, hi, _ := state.table.PriceRange()
	yMin, yMax := uihelpers.NiceAxisBounds(lo, hi)
	cw, chh := chartSize(state)
	var yTicks []chart.Tick
	for _, v := range uihelpers.AxisTicks(yMin, yMax, uihelpers.TickCount(chh)) {
		yTicks = append(yTicks, chart.Tick{Value: v, Label: uihelpers.FormatNumericTick(v)})
	}
	if n := len(yTicks); n > 0 {
		// keep the axis range aligned with the outermost ticks
		yMin = math.Min(yMin, yTicks[0].Value)
		yMax = math.Max(yMax, yTicks[n-1].Value)
	}

	ch := chart.Chart{
		Title:      title,
		Width:      cw,
		Height:     chh,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 28}},
		XAxis:      chart.XAxis{Name: "step", Range: &chart.ContinuousRange{Min: minX, Max: maxX}},
		YAxis:      chart.YAxis{Name: "price", Range: &chart.ContinuousRange{Min: yMin, Max: yMax}, Ticks: yTicks},
		Series:     out,
	}
	// no legend: with hundreds of paths it would cover the plot
	return ch, nil
}

// renderPathsChart renders the loaded table. Empty tables and render failures
// produce a blank image so the UI still updates.
func renderPathsChart(state *uiState) image.Image {
	cw, chh := chartSize(state)
	if state == nil || state.table.Len() == 0 {
		return blank(cw, chh)
	}
	ch, err := buildPathsChart(state)
	if err != nil {
		return blank(cw, chh)
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		logging.Warnf("[viewer] paths chart render error: %v; showing blank fallback", err)
		return blank(cw, chh)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		logging.Warnf("[viewer] paths chart decode error: %v; showing blank fallback", err)
		return blank(cw, chh)
	}
	if state.cfg != nil && state.cfg.Caption {
		return drawCaption(img, captionText(state))
	}
	return img
}

func captionText(state *uiState) string {
	stride := 1
	if state.cfg != nil {
		stride = state.cfg.StepStride
	}
	return fmt.Sprintf("%d paths, %d points, stride %d", state.table.PathCount(), state.table.Len(), stride)
}

const captionInset = 8

// drawCaption stamps text in the lower-left corner on a dark backdrop.
func drawCaption(img image.Image, text string) image.Image {
	text = strings.TrimSpace(text)
	if img == nil || text == "" {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	d := font.Drawer{Dst: out, Src: image.White, Face: basicfont.Face7x13}
	d.Dot = fixed.P(b.Min.X+captionInset, b.Max.Y-captionInset)
	box, _ := d.BoundString(text)
	backdrop := image.Rect(box.Min.X.Floor()-4, box.Min.Y.Floor()-4, box.Max.X.Ceil()+4, box.Max.Y.Ceil()+4)
	draw.Draw(out, backdrop, image.NewUniform(color.RGBA{A: 200}), image.Point{}, draw.Over)
	d.DrawString(text)
	return out
}

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 18, G: 18, B: 18, A: 255}), image.Point{}, draw.Src)
	return img
}

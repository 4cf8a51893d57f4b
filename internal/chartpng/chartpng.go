// Package chartpng renders the dashboard charts to PNG images.
package chartpng

import (
	"errors"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/timetracker/tdash/internal/render"
)

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("chart has no data")

// Default image size.
const (
	DefaultWidth  = 640
	DefaultHeight = 400
)

// Size is an image size in pixels. Zero fields use the defaults.
type Size struct {
	Width  int
	Height int
}

func (s Size) normalize() Size {
	if s.Width <= 0 {
		s.Width = DefaultWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultHeight
	}
	return s
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// StatusDonut writes the working/offline donut. Empty segments are left out.
func StatusDonut(w io.Writer, s render.StatusChart, size Size) error {
	size = size.normalize()
	var values []chart.Value
	for _, seg := range s.Segments() {
		if seg.Count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(seg.Count),
			Label: seg.Tooltip(),
			Style: chart.Style{
				FillColor:   color(seg.Color),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}
	donut := chart.DonutChart{
		Title:  "Current Status",
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}
	if err := donut.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering status chart: %w", err)
	}
	return nil
}

// ProgressBars writes the weekly progress chart: one filled column per
// user and a dashed line at the weekly target.
func ProgressBars(w io.Writer, p render.ProgressChart, size Size) error {
	size = size.normalize()
	if len(p.Bars) == 0 {
		return ErrNoData
	}

	series := make([]chart.Series, 0, len(p.Bars)+1)
	ticks := make([]chart.Tick, 0, len(p.Bars))
	for i, b := range p.Bars {
		left, right := float64(i)+0.15, float64(i)+0.85
		series = append(series, chart.ContinuousSeries{
			Name:    b.Name,
			XValues: []float64{left, left, right, right},
			YValues: []float64{0, b.Hours, b.Hours, 0},
			Style: chart.Style{
				StrokeColor: color(b.Color()),
				FillColor:   color(b.Color()).WithAlpha(200),
				StrokeWidth: 1,
			},
		})
		ticks = append(ticks, chart.Tick{Value: float64(i) + 0.5, Label: b.Label})
	}

	n := float64(len(p.Bars))
	series = append(series, chart.ContinuousSeries{
		Name:    fmt.Sprintf("Target (%gh)", p.TargetValue()),
		XValues: []float64{0, n},
		YValues: []float64{p.TargetValue(), p.TargetValue()},
		Style: chart.Style{
			StrokeColor:     color(render.ColorTarget),
			StrokeWidth:     2,
			StrokeDashArray: []float64{5, 5},
		},
	})

	yTicks := make([]chart.Tick, 0, 6)
	for _, v := range p.Ticks(5) {
		yTicks = append(yTicks, chart.Tick{Value: v, Label: render.OneDecimal(v)})
	}

	ch := chart.Chart{
		Title:      "Weekly Hours Progress",
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: n},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Hours",
			Range: &chart.ContinuousRange{Min: 0, Max: p.YMax},
			Ticks: yTicks,
		},
		Series: series,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering progress chart: %w", err)
	}
	return nil
}

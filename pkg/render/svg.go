// Package render draws chart geometry as SVG documents or terminal text.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/godilite/insights-server/pkg/geometry"
)

// Defaults for rendered charts.
const (
	DefaultWidth   = 640
	DefaultHeight  = 320
	DefaultPadding = 32
)

var ErrViewportTooSmall = errors.New("render: viewport too small")

// Palette is the fill rotation for slices and bars.
var Palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

const (
	axisColor  = "#475569"
	gridColor  = "#cbd5f5"
	lineColor  = "#2563eb"
	beforeFill = "#94a3b8"
	afterFill  = "#0ea5e9"
)

// SVGOptions customises the SVG renderers.
type SVGOptions struct {
	Width       int
	Height      int
	Padding     int
	Title       string
	Description string
	// InnerRadius turns a pie into a donut when positive.
	InnerRadius float64
	ShowDots    bool
}

func (o SVGOptions) withDefaults() SVGOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	return o
}

// PlotSize returns the drawable area inside the padding.
func (o SVGOptions) PlotSize() (width, height int) {
	o = o.withDefaults()
	return o.Width - 2*o.Padding, o.Height - 2*o.Padding
}

// PieCircle returns the largest circle that fits the plot area, leaving the
// right third of the canvas for the legend.
func (o SVGOptions) PieCircle() geometry.Circle {
	o = o.withDefaults()
	w, h := o.PlotSize()
	pieWidth := w * 2 / 3
	r := math.Min(float64(pieWidth), float64(h)) / 2
	return geometry.Circle{
		CX: float64(o.Padding) + float64(pieWidth)/2,
		CY: float64(o.Padding) + float64(h)/2,
		R:  r,
	}
}

func begin(opts SVGOptions, fallbackTitle, fallbackDesc string) (*bytes.Buffer, *svg.SVG) {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(opts.Width, opts.Height, `role="img"`)
	canvas.Title(fallback(opts.Title, fallbackTitle))
	canvas.Desc(fallback(opts.Description, fallbackDesc))
	return &buf, canvas
}

func emptyState(canvas *svg.SVG, opts SVGOptions) {
	canvas.Text(opts.Width/2, opts.Height/2, "No data available",
		fmt.Sprintf("font-size:12px;fill:%s;text-anchor:middle", axisColor))
}

// Pie renders slices computed against c. An empty slice list renders the
// empty state.
func Pie(slices []geometry.Slice, c geometry.Circle, opts SVGOptions) (string, error) {
	opts = opts.withDefaults()
	if w, h := opts.PlotSize(); w <= 0 || h <= 0 {
		return "", ErrViewportTooSmall
	}

	buf, canvas := begin(opts, "Distribution", "Share of each category")
	if len(slices) == 0 {
		emptyState(canvas, opts)
		canvas.End()
		return buf.String(), nil
	}

	canvas.Gid("slices")
	for i, s := range slices {
		d := s.Path(c)
		if opts.InnerRadius > 0 {
			d = s.DonutPath(c, opts.InnerRadius)
		}
		if d == "" {
			continue
		}
		canvas.Path(d, fmt.Sprintf("fill:%s;stroke:#ffffff;stroke-width:1;fill-rule:evenodd", color(i)))
	}
	canvas.Gend()

	legendX := int(c.CX+c.R) + 24
	for i, s := range slices {
		y := opts.Padding + i*18
		canvas.Rect(legendX, y, 10, 10, "fill:"+color(i))
		canvas.Text(legendX+16, y+9, fmt.Sprintf("%s %d%%", s.Category, s.Label),
			fmt.Sprintf("font-size:11px;fill:%s", axisColor))
	}

	canvas.End()
	return buf.String(), nil
}

// Bars renders bar heights computed for the plot height returned by PlotSize.
func Bars(bars []geometry.BarHeight, opts SVGOptions) (string, error) {
	opts = opts.withDefaults()
	plotW, plotH := opts.PlotSize()
	if plotW <= 0 || plotH <= 0 {
		return "", ErrViewportTooSmall
	}

	buf, canvas := begin(opts, "Bar chart", "Values by category")
	if len(bars) == 0 {
		emptyState(canvas, opts)
		canvas.End()
		return buf.String(), nil
	}

	drawAxes(canvas, opts, plotW, plotH)

	slot := plotW / len(bars)
	barW := int(math.Max(1, float64(slot)*0.6))
	canvas.Translate(opts.Padding, opts.Padding)
	for i, b := range bars {
		x := i*slot + (slot-barW)/2
		canvas.Rect(x, plotH-b.HeightPx, barW, b.HeightPx, "fill:"+color(i))
		canvas.Text(x+barW/2, plotH+14, b.Label,
			fmt.Sprintf("font-size:10px;fill:%s;text-anchor:middle", axisColor))
		canvas.Text(x+barW/2, plotH-b.HeightPx-4, formatValue(b.Value),
			fmt.Sprintf("font-size:10px;fill:%s;text-anchor:middle", axisColor))
	}
	canvas.Gend()

	canvas.End()
	return buf.String(), nil
}

// Line renders points computed for the plot size returned by PlotSize.
func Line(points []geometry.LinePoint, opts SVGOptions) (string, error) {
	opts = opts.withDefaults()
	plotW, plotH := opts.PlotSize()
	if plotW <= 0 || plotH <= 0 {
		return "", ErrViewportTooSmall
	}

	buf, canvas := begin(opts, "Line chart", "Trend data")
	if len(points) == 0 {
		emptyState(canvas, opts)
		canvas.End()
		return buf.String(), nil
	}

	drawAxes(canvas, opts, plotW, plotH)

	canvas.Translate(opts.Padding, opts.Padding)
	var d strings.Builder
	for i, p := range points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&d, "%s%.2f %.2f ", cmd, p.X, p.Y)
	}
	canvas.Path(strings.TrimSpace(d.String()),
		fmt.Sprintf("fill:none;stroke:%s;stroke-width:2;stroke-linejoin:round;stroke-linecap:round", lineColor))

	for _, p := range points {
		x, y := int(math.Round(p.X)), int(math.Round(p.Y))
		if opts.ShowDots {
			canvas.Circle(x, y, 3, "fill:"+lineColor)
		}
		canvas.Text(x, plotH+14, p.Label,
			fmt.Sprintf("font-size:10px;fill:%s;text-anchor:middle", axisColor))
	}
	canvas.Gend()

	canvas.End()
	return buf.String(), nil
}

// BeforeAfter renders paired horizontal bars on a 0–100 width scale.
func BeforeAfter(bars []geometry.BeforeAfterBar, opts SVGOptions) (string, error) {
	opts = opts.withDefaults()
	plotW, plotH := opts.PlotSize()
	if plotW <= 0 || plotH <= 0 {
		return "", ErrViewportTooSmall
	}

	buf, canvas := begin(opts, "Before and after", "Metric comparison")
	if len(bars) == 0 {
		emptyState(canvas, opts)
		canvas.End()
		return buf.String(), nil
	}

	rowH := plotH / len(bars)
	barH := int(math.Max(2, float64(rowH)/4))
	labelStyle := fmt.Sprintf("font-size:11px;fill:%s", axisColor)

	canvas.Translate(opts.Padding, opts.Padding)
	for i, b := range bars {
		y := i * rowH
		canvas.Text(0, y+11, b.Name, labelStyle)
		beforeW := int(math.Round(geometry.ClampPct(b.BeforePct) / 100 * float64(plotW)))
		afterW := int(math.Round(geometry.ClampPct(b.AfterPct) / 100 * float64(plotW)))
		canvas.Rect(0, y+16, beforeW, barH, "fill:"+beforeFill)
		canvas.Rect(0, y+18+barH, afterW, barH, "fill:"+afterFill)
		canvas.Text(plotW, y+11,
			fmt.Sprintf("%s → %s %s", formatValue(b.BeforePct), formatValue(b.AfterPct), b.Unit),
			labelStyle+";text-anchor:end")
	}
	canvas.Gend()

	canvas.End()
	return buf.String(), nil
}

func drawAxes(canvas *svg.SVG, opts SVGOptions, plotW, plotH int) {
	left, top := opts.Padding, opts.Padding
	canvas.Line(left, top+plotH, left+plotW, top+plotH, "stroke:"+axisColor)
	canvas.Line(left, top, left, top+plotH, "stroke:"+axisColor)
	for i := 1; i <= 4; i++ {
		y := top + plotH - plotH*i/4
		canvas.Line(left, y, left+plotW, y, fmt.Sprintf("stroke:%s;stroke-width:0.5;stroke-dasharray:2,4", gridColor))
	}
}

func color(i int) string {
	return Palette[i%len(Palette)]
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func formatValue(v float64) string {
	if math.Abs(v-math.Round(v)) < 1e-9 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

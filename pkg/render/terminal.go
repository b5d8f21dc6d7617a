package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/godilite/insights-server/pkg/geometry"
)

var (
	colorTrack  = lipgloss.Color("#45475a")
	colorBefore = lipgloss.Color(beforeFill)
	colorAfter  = lipgloss.Color(afterFill)
	colorGood   = lipgloss.Color("#a6e3a1")
	colorBad    = lipgloss.Color("#f38ba8")

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// TextOptions customises the terminal renderers.
type TextOptions struct {
	Title      string
	BarWidth   int
	LabelWidth int
}

func (o TextOptions) withDefaults() TextOptions {
	if o.BarWidth < 4 {
		o.BarWidth = 40
	}
	if o.LabelWidth < 4 {
		o.LabelWidth = 18
	}
	return o
}

func header(title string) string {
	if title == "" {
		return ""
	}
	return titleStyle.Render(title) + "\n"
}

func truncate(label string, w int) string {
	r := []rune(label)
	if len(r) > w {
		return string(r[:w-1]) + "…"
	}
	return label
}

func gauge(cells, width int, color lipgloss.Color) string {
	if cells < 0 {
		cells = 0
	}
	if cells > width {
		cells = width
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", cells))
	track := lipgloss.NewStyle().Foreground(colorTrack).Render(strings.Repeat("░", width-cells))
	return bar + track
}

// PieText lists each slice with a gauge proportional to its share.
func PieText(slices []geometry.Slice, opts TextOptions) string {
	opts = opts.withDefaults()
	if len(slices) == 0 {
		return header(opts.Title) + dimStyle.Render("  No data available")
	}

	lines := make([]string, 0, len(slices))
	for i, s := range slices {
		cells := int(math.Round(s.Percentage * float64(opts.BarWidth)))
		c := lipgloss.Color(color(i))
		lines = append(lines, fmt.Sprintf("  %s %s  %s",
			labelStyle.Width(opts.LabelWidth).Render(truncate(s.Category, opts.LabelWidth)),
			gauge(cells, opts.BarWidth, c),
			lipgloss.NewStyle().Foreground(c).Bold(true).Render(fmt.Sprintf("%3d%%", s.Label))))
	}
	return header(opts.Title) + strings.Join(lines, "\n")
}

// BarsText draws horizontal bars. Heights are expected in terminal cells,
// i.e. computed with BarWidth as the maximum height.
func BarsText(bars []geometry.BarHeight, opts TextOptions) string {
	opts = opts.withDefaults()
	if len(bars) == 0 {
		return header(opts.Title) + dimStyle.Render("  No data available")
	}

	lines := make([]string, 0, len(bars))
	for i, b := range bars {
		c := lipgloss.Color(color(i))
		lines = append(lines, fmt.Sprintf("  %s %s  %s",
			labelStyle.Width(opts.LabelWidth).Render(truncate(b.Label, opts.LabelWidth)),
			gauge(b.HeightPx, opts.BarWidth, c),
			lipgloss.NewStyle().Foreground(c).Bold(true).Render(formatValue(b.Value))))
	}
	return header(opts.Title) + strings.Join(lines, "\n")
}

// LineText draws a sparkline from points laid out on a plot of the given height.
func LineText(points []geometry.LinePoint, height float64, opts TextOptions) string {
	opts = opts.withDefaults()
	if len(points) == 0 || height <= 0 {
		return header(opts.Title) + dimStyle.Render("  No data available")
	}

	var sb strings.Builder
	for _, p := range points {
		level := (height - p.Y) / height
		idx := int(math.Round(level * float64(len(sparkBlocks)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		sb.WriteRune(sparkBlocks[idx])
	}

	first, last := points[0], points[len(points)-1]
	return header(opts.Title) + fmt.Sprintf("  %s  %s",
		lipgloss.NewStyle().Foreground(lipgloss.Color(lineColor)).Render(sb.String()),
		dimStyle.Render(fmt.Sprintf("%s %s → %s %s", first.Label, formatValue(first.Value), last.Label, formatValue(last.Value))))
}

// BeforeAfterText draws a before and an after gauge per metric.
func BeforeAfterText(bars []geometry.BeforeAfterBar, opts TextOptions) string {
	opts = opts.withDefaults()
	if len(bars) == 0 {
		return header(opts.Title) + dimStyle.Render("  No data available")
	}

	pad := strings.Repeat(" ", opts.LabelWidth)
	lines := make([]string, 0, len(bars)*2)
	for _, b := range bars {
		before := int(math.Round(geometry.ClampPct(b.BeforePct) / 100 * float64(opts.BarWidth)))
		after := int(math.Round(geometry.ClampPct(b.AfterPct) / 100 * float64(opts.BarWidth)))

		trend := colorBad
		if b.Improved {
			trend = colorGood
		}
		lines = append(lines,
			fmt.Sprintf("  %s %s  %s",
				labelStyle.Width(opts.LabelWidth).Render(truncate(b.Name, opts.LabelWidth)),
				gauge(before, opts.BarWidth, colorBefore),
				dimStyle.Render(fmt.Sprintf("%s %s", formatValue(b.BeforePct), b.Unit))),
			fmt.Sprintf("  %s %s  %s",
				pad,
				gauge(after, opts.BarWidth, colorAfter),
				lipgloss.NewStyle().Foreground(trend).Bold(true).Render(fmt.Sprintf("%s %s (%+g)", formatValue(b.AfterPct), b.Unit, b.Delta))),
		)
	}
	return header(opts.Title) + strings.Join(lines, "\n")
}

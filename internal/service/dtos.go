package service

import (
	"fmt"
	"strings"

	"github.com/godilite/insights-server/internal/repository/models"
	"github.com/godilite/insights-server/pkg/geometry"
	"github.com/godilite/insights-server/pkg/render"
)

// SortOrder controls how pie slices and bars are ordered. Line charts keep
// axis order regardless.
type SortOrder string

const (
	SortPosition  SortOrder = "position"
	SortValueAsc  SortOrder = "value_asc"
	SortValueDesc SortOrder = "value_desc"
	SortLabel     SortOrder = "label"
)

// ParseSortOrder accepts the wire names; an empty string means SortPosition.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortPosition, nil
	case SortPosition, SortValueAsc, SortValueDesc, SortLabel:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", ErrInvalidData, s)
	}
}

// ChartOptions sizes the viewport geometry is computed for.
type ChartOptions struct {
	SortBy SortOrder
	Width  int
	Height int
}

// svg returns the render options the geometry is laid out against.
func (o ChartOptions) svg(meta ChartMeta) render.SVGOptions {
	opts := render.SVGOptions{
		Width:       o.Width,
		Height:      o.Height,
		Title:       meta.Title,
		Description: meta.description(),
		ShowDots:    true,
	}
	if meta.Kind == models.KindDonut {
		opts.InnerRadius = opts.PieCircle().R * donutRatio
	}
	return opts
}

type ChartMeta struct {
	ID        string
	Dashboard string
	Title     string
	Kind      models.ChartKind
	Unit      string
}

func (m ChartMeta) description() string {
	if m.Unit == "" {
		return fmt.Sprintf("%s chart", m.Kind)
	}
	return fmt.Sprintf("%s chart in %s", m.Kind, m.Unit)
}

type PieChart struct {
	ChartMeta
	Circle      geometry.Circle
	InnerRadius float64
	Total       float64
	Slices      []geometry.Slice
}

type BarChart struct {
	ChartMeta
	MaxHeightPx int
	ScaleMax    float64
	Bars        []geometry.BarHeight
}

type LineChart struct {
	ChartMeta
	Width    float64
	Height   float64
	ScaleMax float64
	Points   []geometry.LinePoint
	Polyline string
}

type BeforeAfterChart struct {
	ChartMeta
	Bars []geometry.BeforeAfterBar
}

// ChartView holds exactly one populated chart. Empty is set when the
// filter matched no data; the caller shows the empty state.
type ChartView struct {
	Meta        ChartMeta
	Empty       bool
	Pie         *PieChart
	Bar         *BarChart
	Line        *LineChart
	BeforeAfter *BeforeAfterChart
}

type Dashboard struct {
	Name   string
	Title  string
	Charts []ChartView
}

// DashboardResult is delivered once by LoadDashboardAsync.
type DashboardResult struct {
	Dashboard Dashboard
	Err       error
}

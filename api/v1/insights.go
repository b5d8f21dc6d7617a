// Package v1 declares the insights.v1 gRPC API. Messages are plain Go
// structs carried by the json codec.
package v1

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ChartFilter narrows the data behind a chart. Zero values mean "all".
type ChartFilter struct {
	StudentID string                 `json:"student_id,omitempty" validate:"max=64"`
	From      *timestamppb.Timestamp `json:"from,omitempty"`
	To        *timestamppb.Timestamp `json:"to,omitempty"`
	Search    string                 `json:"search,omitempty" validate:"max=128"`
}

func (f *ChartFilter) GetStudentID() string {
	if f == nil {
		return ""
	}
	return f.StudentID
}

func (f *ChartFilter) GetFrom() *timestamppb.Timestamp {
	if f == nil {
		return nil
	}
	return f.From
}

func (f *ChartFilter) GetTo() *timestamppb.Timestamp {
	if f == nil {
		return nil
	}
	return f.To
}

func (f *ChartFilter) GetSearch() string {
	if f == nil {
		return ""
	}
	return f.Search
}

// Viewport sizes the drawing area geometry is computed for. Zero means the
// renderer default.
type Viewport struct {
	Width  int32 `json:"width,omitempty" validate:"omitempty,min=96,max=4096"`
	Height int32 `json:"height,omitempty" validate:"omitempty,min=96,max=4096"`
}

type ChartRequest struct {
	ChartID  string       `json:"chart_id" validate:"required,max=128"`
	Filter   *ChartFilter `json:"filter,omitempty"`
	SortBy   string       `json:"sort_by,omitempty" validate:"omitempty,oneof=position value_asc value_desc label"`
	Viewport Viewport     `json:"viewport"`
}

type DashboardRequest struct {
	Name     string       `json:"name" validate:"required,max=128"`
	Filter   *ChartFilter `json:"filter,omitempty"`
	SortBy   string       `json:"sort_by,omitempty" validate:"omitempty,oneof=position value_asc value_desc label"`
	Viewport Viewport     `json:"viewport"`
}

type ChartInfo struct {
	ID        string `json:"id"`
	Dashboard string `json:"dashboard"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Unit      string `json:"unit,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Circle struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	R  float64 `json:"r"`
}

type PieSlice struct {
	Category     string  `json:"category"`
	Value        float64 `json:"value"`
	Percentage   float64 `json:"percentage"`
	StartAngle   float64 `json:"start_angle"`
	EndAngle     float64 `json:"end_angle"`
	Start        Point   `json:"start"`
	End          Point   `json:"end"`
	LargeArcFlag int32   `json:"large_arc_flag"`
	Label        int32   `json:"label"`
	Path         string  `json:"path"`
}

type PieChartResponse struct {
	Chart       ChartInfo   `json:"chart"`
	Circle      Circle      `json:"circle"`
	InnerRadius float64     `json:"inner_radius,omitempty"`
	Total       float64     `json:"total"`
	Slices      []*PieSlice `json:"slices"`
}

type Bar struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	HeightPx int32   `json:"height_px"`
}

type BarChartResponse struct {
	Chart       ChartInfo `json:"chart"`
	MaxHeightPx int32     `json:"max_height_px"`
	ScaleMax    float64   `json:"scale_max"`
	Bars        []*Bar    `json:"bars"`
}

type LinePoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type LineChartResponse struct {
	Chart    ChartInfo    `json:"chart"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	ScaleMax float64      `json:"scale_max"`
	Points   []*LinePoint `json:"points"`
	Polyline string       `json:"polyline"`
}

type BeforeAfterBar struct {
	Name      string  `json:"name"`
	BeforePct float64 `json:"before_pct"`
	AfterPct  float64 `json:"after_pct"`
	Unit      string  `json:"unit,omitempty"`
	Delta     float64 `json:"delta"`
	Improved  bool    `json:"improved"`
}

type BeforeAfterChartResponse struct {
	Chart ChartInfo         `json:"chart"`
	Bars  []*BeforeAfterBar `json:"bars"`
}

// DashboardChart carries exactly one of the chart payloads.
type DashboardChart struct {
	Chart       ChartInfo                 `json:"chart"`
	Empty       bool                      `json:"empty,omitempty"`
	Pie         *PieChartResponse         `json:"pie,omitempty"`
	Bar         *BarChartResponse         `json:"bar,omitempty"`
	Line        *LineChartResponse        `json:"line,omitempty"`
	BeforeAfter *BeforeAfterChartResponse `json:"before_after,omitempty"`
}

type DashboardResponse struct {
	Name   string            `json:"name"`
	Title  string            `json:"title"`
	Charts []*DashboardChart `json:"charts"`
}

type RenderChartResponse struct {
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

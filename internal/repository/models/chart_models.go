package models

import "time"

type ChartKind string

const (
	KindPie         ChartKind = "pie"
	KindDonut       ChartKind = "donut"
	KindBar         ChartKind = "bar"
	KindLine        ChartKind = "line"
	KindBeforeAfter ChartKind = "before_after"
)

// Valid reports whether k is a known chart kind.
func (k ChartKind) Valid() bool {
	switch k {
	case KindPie, KindDonut, KindBar, KindLine, KindBeforeAfter:
		return true
	}
	return false
}

type Dashboard struct {
	Name   string
	Title  string
	Charts []Chart
}

type Chart struct {
	ID        string
	Dashboard string
	Title     string
	Kind      ChartKind
	Unit      string
	Points    []ChartPoint
	Metrics   []ComparisonMetric
}

type ChartPoint struct {
	Label      string
	Value      float64
	StudentID  string
	RecordedAt time.Time
}

type ComparisonMetric struct {
	Name          string
	Before        float64
	After         float64
	Unit          string
	LowerIsBetter bool
	StudentID     string
}

type LabelValue struct {
	Label string
	Value float64
}

// Filter narrows chart rows. Zero fields do not filter.
type Filter struct {
	StudentID string
	From      time.Time
	To        time.Time
	Search    string
}

// HasTimeRange reports whether either bound is set.
func (f Filter) HasTimeRange() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

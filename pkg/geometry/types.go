// Package geometry converts dashboard data into draw-ready chart geometry.
//
// Every function is pure: the same input always yields the same output and
// nothing is cached between calls. Output carries no rendering-target
// assumptions, so the same slices, bars and points can feed an SVG document,
// a canvas or a terminal.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// HeadroomFactor keeps the tallest bar or point away from the container edge.
const HeadroomFactor = 1.1

// scaleEpsilon replaces a zero scale maximum so all-zero series divide safely.
const scaleEpsilon = 1e-9

var (
	ErrNonFinite         = errors.New("value is not finite")
	ErrNegativeValue     = errors.New("value is negative")
	ErrEmptySeries       = errors.New("series is empty")
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrInvalidDimensions = errors.New("invalid dimensions")
)

// SeriesPoint is one labelled value on a categorical or time axis.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MetricSeries is an ordered list of points. Order is display order.
type MetricSeries []SeriesPoint

// Category is one named weight of a distribution.
type Category struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// CategoryDistribution is an ordered category→weight mapping with unique names.
type CategoryDistribution []Category

// BeforeAfterMetric pairs a measurement taken before and after an intervention.
// LowerIsBetter marks metrics such as incident counts where a drop is good.
type BeforeAfterMetric struct {
	Name          string  `json:"name"`
	Before        float64 `json:"before"`
	After         float64 `json:"after"`
	Unit          string  `json:"unit"`
	LowerIsBetter bool    `json:"lower_is_better,omitempty"`
}

// Circle is the drawing circle for pie and donut slices.
type Circle struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	R  float64 `json:"r"`
}

// Point2D is a position in drawing coordinates (y grows downward).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Total returns the sum of all weights.
func (d CategoryDistribution) Total() float64 {
	var total float64
	for _, c := range d {
		total += c.Weight
	}
	return total
}

// Validate reports the first contract violation in the distribution.
func (d CategoryDistribution) Validate() error {
	seen := make(map[string]struct{}, len(d))
	for _, c := range d {
		if err := checkValue(c.Name, c.Weight); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// checkedTotal is Total, failing when finite weights overflow the sum.
func (d CategoryDistribution) checkedTotal() (float64, error) {
	total := d.Total()
	if math.IsInf(total, 0) {
		return 0, fmt.Errorf("%w: total weight overflows", ErrNonFinite)
	}
	return total, nil
}

// Validate reports the first contract violation in the series.
func (s MetricSeries) Validate() error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for _, p := range s {
		if err := checkValue(p.Label, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(label string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %q", ErrNonFinite, label)
	}
	if v < 0 {
		return fmt.Errorf("%w: %q = %g", ErrNegativeValue, label, v)
	}
	return nil
}

func checkFinite(label string, vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %q", ErrNonFinite, label)
		}
	}
	return nil
}

func checkDimension(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidDimensions, name, v)
	}
	return nil
}

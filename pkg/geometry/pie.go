package geometry

import (
	"fmt"
	"math"
	"strings"
)

// FullCircle is the angular extent of a pie in degrees.
const FullCircle = 360.0

// Slice is one wedge of a pie or donut chart. Angles are in degrees, 0 at
// 12 o'clock, increasing clockwise.
type Slice struct {
	Category     string  `json:"category"`
	Value        float64 `json:"value"`
	Percentage   float64 `json:"percentage"`
	StartAngle   float64 `json:"start_angle"`
	EndAngle     float64 `json:"end_angle"`
	Start        Point2D `json:"start"`
	End          Point2D `json:"end"`
	LargeArcFlag int     `json:"large_arc_flag"`
	Label        int     `json:"label"`
}

// Span returns the angular extent of the slice.
func (s Slice) Span() float64 {
	return s.EndAngle - s.StartAngle
}

// PointOnCircle maps an angle (0 at 12 o'clock, clockwise) onto the circle.
func PointOnCircle(c Circle, angle float64) Point2D {
	return pointAt(c.CX, c.CY, c.R, angle)
}

func pointAt(cx, cy, r, angle float64) Point2D {
	rad := (angle - 90) * math.Pi / 180
	return Point2D{
		X: cx + r*math.Cos(rad),
		Y: cy + r*math.Sin(rad),
	}
}

// ComputePieSlices lays the distribution out as consecutive clockwise wedges.
// A zero-sum distribution yields no slices so the caller can show an empty state.
func ComputePieSlices(dist CategoryDistribution, c Circle) ([]Slice, error) {
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	if err := checkDimension("radius", c.R); err != nil {
		return nil, err
	}
	if err := checkFinite("center", c.CX, c.CY); err != nil {
		return nil, err
	}

	total, err := dist.checkedTotal()
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return []Slice{}, nil
	}

	slices := make([]Slice, 0, len(dist))
	start := 0.0
	for i, cat := range dist {
		pct := cat.Weight / total
		end := math.Min(start+pct*FullCircle, FullCircle)
		if i == len(dist)-1 {
			end = FullCircle
		}
		slices = append(slices, Slice{
			Category:     cat.Name,
			Value:        cat.Weight,
			Percentage:   pct,
			StartAngle:   start,
			EndAngle:     end,
			Start:        pointAt(c.CX, c.CY, c.R, start),
			End:          pointAt(c.CX, c.CY, c.R, end),
			LargeArcFlag: largeArc(end - start),
			Label:        int(math.Round(pct * 100)),
		})
		start = end
	}
	return slices, nil
}

// Percentages returns each category's unrounded share of the total, in order.
// A zero-sum distribution returns all zeros.
func Percentages(dist CategoryDistribution) ([]float64, error) {
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	total, err := dist.checkedTotal()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(dist))
	if total <= 0 {
		return out, nil
	}
	for i, c := range dist {
		out[i] = c.Weight / total
	}
	return out, nil
}

func largeArc(span float64) int {
	if span > 180 {
		return 1
	}
	return 0
}

// Path returns an SVG path for the wedge from the circle centre.
func (s Slice) Path(c Circle) string {
	if s.Span() <= 0 {
		return ""
	}
	if s.Span() >= FullCircle {
		return fullRing(c, 0)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M%.2f %.2f L%.2f %.2f ", c.CX, c.CY, s.Start.X, s.Start.Y)
	fmt.Fprintf(&b, "A%.2f %.2f 0 %d 1 %.2f %.2f Z", c.R, c.R, s.LargeArcFlag, s.End.X, s.End.Y)
	return b.String()
}

// DonutPath returns an SVG path for the slice as an annular segment with the
// given inner radius. An inner radius outside (0, R) falls back to Path.
func (s Slice) DonutPath(c Circle, inner float64) string {
	if inner <= 0 || inner >= c.R {
		return s.Path(c)
	}
	if s.Span() <= 0 {
		return ""
	}
	if s.Span() >= FullCircle {
		return fullRing(c, inner)
	}
	innerStart := pointAt(c.CX, c.CY, inner, s.StartAngle)
	innerEnd := pointAt(c.CX, c.CY, inner, s.EndAngle)

	var b strings.Builder
	fmt.Fprintf(&b, "M%.2f %.2f ", s.Start.X, s.Start.Y)
	fmt.Fprintf(&b, "A%.2f %.2f 0 %d 1 %.2f %.2f ", c.R, c.R, s.LargeArcFlag, s.End.X, s.End.Y)
	fmt.Fprintf(&b, "L%.2f %.2f ", innerEnd.X, innerEnd.Y)
	fmt.Fprintf(&b, "A%.2f %.2f 0 %d 0 %.2f %.2f Z", inner, inner, s.LargeArcFlag, innerStart.X, innerStart.Y)
	return b.String()
}

// fullRing draws a whole circle (or ring) as two half arcs; a single arc whose
// endpoints coincide renders nothing.
func fullRing(c Circle, inner float64) string {
	top := pointAt(c.CX, c.CY, c.R, 0)
	bottom := pointAt(c.CX, c.CY, c.R, 180)

	var b strings.Builder
	fmt.Fprintf(&b, "M%.2f %.2f ", top.X, top.Y)
	fmt.Fprintf(&b, "A%.2f %.2f 0 1 1 %.2f %.2f ", c.R, c.R, bottom.X, bottom.Y)
	fmt.Fprintf(&b, "A%.2f %.2f 0 1 1 %.2f %.2f Z", c.R, c.R, top.X, top.Y)
	if inner > 0 {
		itop := pointAt(c.CX, c.CY, inner, 0)
		ibottom := pointAt(c.CX, c.CY, inner, 180)
		fmt.Fprintf(&b, " M%.2f %.2f ", itop.X, itop.Y)
		fmt.Fprintf(&b, "A%.2f %.2f 0 1 0 %.2f %.2f ", inner, inner, ibottom.X, ibottom.Y)
		fmt.Fprintf(&b, "A%.2f %.2f 0 1 0 %.2f %.2f Z", inner, inner, itop.X, itop.Y)
	}
	return b.String()
}

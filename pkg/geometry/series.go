package geometry

import (
	"fmt"
	"math"
	"strings"
)

// BarHeight is the pixel height of one bar.
type BarHeight struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	HeightPx int     `json:"height_px"`
}

// LinePoint is one vertex of a line chart in drawing coordinates.
type LinePoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ScaleMax returns the headroom-adjusted axis maximum for the series. The
// result is +Inf when the headroom overflows; see checkedScale.
func ScaleMax(series MetricSeries) float64 {
	var maxVal float64
	for _, p := range series {
		if p.Value > maxVal {
			maxVal = p.Value
		}
	}
	scale := maxVal * HeadroomFactor
	if scale < scaleEpsilon {
		return scaleEpsilon
	}
	return scale
}

func checkedScale(series MetricSeries) (float64, error) {
	scale := ScaleMax(series)
	if math.IsInf(scale, 0) {
		return 0, fmt.Errorf("%w: axis maximum overflows", ErrNonFinite)
	}
	return scale, nil
}

// ComputeBarHeights maps each value onto [0, maxHeightPx] pixels.
func ComputeBarHeights(series MetricSeries, maxHeightPx int) ([]BarHeight, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if maxHeightPx <= 0 {
		return nil, fmt.Errorf("%w: max height must be positive, got %d", ErrInvalidDimensions, maxHeightPx)
	}

	scale, err := checkedScale(series)
	if err != nil {
		return nil, err
	}
	out := make([]BarHeight, len(series))
	for i, p := range series {
		h := int(math.Round(p.Value / scale * float64(maxHeightPx)))
		if h > maxHeightPx {
			h = maxHeightPx
		}
		out[i] = BarHeight{Label: p.Label, Value: p.Value, HeightPx: h}
	}
	return out, nil
}

// ComputeLinePoints spreads the series evenly across width, in input order.
// A single point sits at x = 0.
func ComputeLinePoints(series MetricSeries, width, height float64) ([]LinePoint, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if err := checkDimension("width", width); err != nil {
		return nil, err
	}
	if err := checkDimension("height", height); err != nil {
		return nil, err
	}

	scale, err := checkedScale(series)
	if err != nil {
		return nil, err
	}
	n := len(series)
	out := make([]LinePoint, n)
	for i, p := range series {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1) * width
		}
		out[i] = LinePoint{
			Label: p.Label,
			Value: p.Value,
			X:     x,
			Y:     height - p.Value/scale*height,
		}
	}
	return out, nil
}

// Polyline formats points for an SVG points attribute.
func Polyline(points []LinePoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

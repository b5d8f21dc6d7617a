package main

import (
	pb "github.com/godilite/insights-server/api/v1"
	"github.com/godilite/insights-server/pkg/geometry"
)

func pieSlices(in []*pb.PieSlice) []geometry.Slice {
	out := make([]geometry.Slice, 0, len(in))
	for _, s := range in {
		out = append(out, geometry.Slice{
			Category:     s.Category,
			Value:        s.Value,
			Percentage:   s.Percentage,
			StartAngle:   s.StartAngle,
			EndAngle:     s.EndAngle,
			Start:        geometry.Point2D{X: s.Start.X, Y: s.Start.Y},
			End:          geometry.Point2D{X: s.End.X, Y: s.End.Y},
			LargeArcFlag: int(s.LargeArcFlag),
			Label:        int(s.Label),
		})
	}
	return out
}

func barHeights(in []*pb.Bar) []geometry.BarHeight {
	out := make([]geometry.BarHeight, 0, len(in))
	for _, b := range in {
		out = append(out, geometry.BarHeight{Label: b.Label, Value: b.Value, HeightPx: int(b.HeightPx)})
	}
	return out
}

func linePoints(in []*pb.LinePoint) []geometry.LinePoint {
	out := make([]geometry.LinePoint, 0, len(in))
	for _, p := range in {
		out = append(out, geometry.LinePoint{Label: p.Label, Value: p.Value, X: p.X, Y: p.Y})
	}
	return out
}

func beforeAfterBars(in []*pb.BeforeAfterBar) []geometry.BeforeAfterBar {
	out := make([]geometry.BeforeAfterBar, 0, len(in))
	for _, b := range in {
		out = append(out, geometry.BeforeAfterBar{
			Name:      b.Name,
			BeforePct: b.BeforePct,
			AfterPct:  b.AfterPct,
			Unit:      b.Unit,
			Delta:     b.Delta,
			Improved:  b.Improved,
		})
	}
	return out
}

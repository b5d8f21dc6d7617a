package grpc

import (
	pb "github.com/godilite/insights-server/api/v1"
	"github.com/godilite/insights-server/internal/service"
	"github.com/godilite/insights-server/pkg/geometry"
)

func toProtoInfo(m service.ChartMeta) pb.ChartInfo {
	return pb.ChartInfo{
		ID:        m.ID,
		Dashboard: m.Dashboard,
		Title:     m.Title,
		Kind:      string(m.Kind),
		Unit:      m.Unit,
	}
}

func toProtoPoint(p geometry.Point2D) pb.Point {
	return pb.Point{X: p.X, Y: p.Y}
}

func toProtoPie(pie service.PieChart) *pb.PieChartResponse {
	slices := make([]*pb.PieSlice, len(pie.Slices))
	for i, s := range pie.Slices {
		path := s.Path(pie.Circle)
		if pie.InnerRadius > 0 {
			path = s.DonutPath(pie.Circle, pie.InnerRadius)
		}
		slices[i] = &pb.PieSlice{
			Category:     s.Category,
			Value:        s.Value,
			Percentage:   s.Percentage,
			StartAngle:   s.StartAngle,
			EndAngle:     s.EndAngle,
			Start:        toProtoPoint(s.Start),
			End:          toProtoPoint(s.End),
			LargeArcFlag: int32(s.LargeArcFlag),
			Label:        int32(s.Label),
			Path:         path,
		}
	}
	return &pb.PieChartResponse{
		Chart:       toProtoInfo(pie.ChartMeta),
		Circle:      pb.Circle{CX: pie.Circle.CX, CY: pie.Circle.CY, R: pie.Circle.R},
		InnerRadius: pie.InnerRadius,
		Total:       pie.Total,
		Slices:      slices,
	}
}

func toProtoBar(bar service.BarChart) *pb.BarChartResponse {
	bars := make([]*pb.Bar, len(bar.Bars))
	for i, b := range bar.Bars {
		bars[i] = &pb.Bar{Label: b.Label, Value: b.Value, HeightPx: int32(b.HeightPx)}
	}
	return &pb.BarChartResponse{
		Chart:       toProtoInfo(bar.ChartMeta),
		MaxHeightPx: int32(bar.MaxHeightPx),
		ScaleMax:    bar.ScaleMax,
		Bars:        bars,
	}
}

func toProtoLine(line service.LineChart) *pb.LineChartResponse {
	points := make([]*pb.LinePoint, len(line.Points))
	for i, p := range line.Points {
		points[i] = &pb.LinePoint{Label: p.Label, Value: p.Value, X: p.X, Y: p.Y}
	}
	return &pb.LineChartResponse{
		Chart:    toProtoInfo(line.ChartMeta),
		Width:    line.Width,
		Height:   line.Height,
		ScaleMax: line.ScaleMax,
		Points:   points,
		Polyline: line.Polyline,
	}
}

func toProtoBeforeAfter(ba service.BeforeAfterChart) *pb.BeforeAfterChartResponse {
	bars := make([]*pb.BeforeAfterBar, len(ba.Bars))
	for i, b := range ba.Bars {
		bars[i] = &pb.BeforeAfterBar{
			Name:      b.Name,
			BeforePct: b.BeforePct,
			AfterPct:  b.AfterPct,
			Unit:      b.Unit,
			Delta:     b.Delta,
			Improved:  b.Improved,
		}
	}
	return &pb.BeforeAfterChartResponse{Chart: toProtoInfo(ba.ChartMeta), Bars: bars}
}

func toProtoDashboard(d service.Dashboard) *pb.DashboardResponse {
	charts := make([]*pb.DashboardChart, len(d.Charts))
	for i, v := range d.Charts {
		c := &pb.DashboardChart{Chart: toProtoInfo(v.Meta), Empty: v.Empty}
		switch {
		case v.Pie != nil:
			c.Pie = toProtoPie(*v.Pie)
		case v.Bar != nil:
			c.Bar = toProtoBar(*v.Bar)
		case v.Line != nil:
			c.Line = toProtoLine(*v.Line)
		case v.BeforeAfter != nil:
			c.BeforeAfter = toProtoBeforeAfter(*v.BeforeAfter)
		}
		charts[i] = c
	}
	return &pb.DashboardResponse{Name: d.Name, Title: d.Title, Charts: charts}
}

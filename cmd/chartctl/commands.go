package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	pb "github.com/godilite/insights-server/api/v1"
	"github.com/godilite/insights-server/pkg/geometry"
	"github.com/godilite/insights-server/pkg/render"
)

// gaugeCells is the width of every terminal gauge.
const gaugeCells = 40

func textOpts(info pb.ChartInfo) render.TextOptions {
	title := info.Title
	if info.Unit != "" {
		title = fmt.Sprintf("%s (%s)", title, info.Unit)
	}
	return render.TextOptions{Title: title, BarWidth: gaugeCells}
}

func pieText(r *pb.PieChartResponse) string {
	return render.PieText(pieSlices(r.Slices), textOpts(r.Chart))
}

// barText rescales the server's pixel heights to terminal cells.
func barText(r *pb.BarChartResponse) string {
	series := make(geometry.MetricSeries, 0, len(r.Bars))
	for _, b := range r.Bars {
		series = append(series, geometry.SeriesPoint{Label: b.Label, Value: b.Value})
	}
	bars, err := geometry.ComputeBarHeights(series, gaugeCells)
	if err != nil {
		bars = barHeights(r.Bars)
	}
	return render.BarsText(bars, textOpts(r.Chart))
}

func lineText(r *pb.LineChartResponse) string {
	return render.LineText(linePoints(r.Points), r.Height, textOpts(r.Chart))
}

func beforeAfterText(r *pb.BeforeAfterChartResponse) string {
	return render.BeforeAfterText(beforeAfterBars(r.Bars), textOpts(r.Chart))
}

// chartCmd builds a subcommand that fetches one chart by id.
func chartCmd[Resp any](g *globalFlags, use, short string,
	call func(pb.InsightsServiceClient, context.Context, *pb.ChartRequest, ...grpc.CallOption) (*Resp, error),
	text func(*Resp) string,
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <chart-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := g.chartRequest(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, c pb.InsightsServiceClient) error {
				resp, err := call(c, ctx, req)
				if err != nil {
					return err
				}
				return g.emit(cmd.OutOrStdout(), resp, func() string { return text(resp) })
			})
		},
	}
}

func newPieCmd(g *globalFlags) *cobra.Command {
	return chartCmd(g, "pie", "Show a pie or donut chart as a percentage legend",
		pb.InsightsServiceClient.GetPieChart, pieText)
}

func newBarCmd(g *globalFlags) *cobra.Command {
	return chartCmd(g, "bar", "Show a bar chart",
		pb.InsightsServiceClient.GetBarChart, barText)
}

func newLineCmd(g *globalFlags) *cobra.Command {
	return chartCmd(g, "line", "Show a line chart as a sparkline",
		pb.InsightsServiceClient.GetLineChart, lineText)
}

func newCompareCmd(g *globalFlags) *cobra.Command {
	return chartCmd(g, "compare", "Show before and after values",
		pb.InsightsServiceClient.GetBeforeAfterChart, beforeAfterText)
}

func dashboardText(r *pb.DashboardResponse) string {
	parts := make([]string, 0, len(r.Charts)+1)
	parts = append(parts, strings.ToUpper(r.Title))
	for _, ch := range r.Charts {
		switch {
		case ch.Empty:
			parts = append(parts, render.BarsText(nil, textOpts(ch.Chart)))
		case ch.Pie != nil:
			parts = append(parts, pieText(ch.Pie))
		case ch.Bar != nil:
			parts = append(parts, barText(ch.Bar))
		case ch.Line != nil:
			parts = append(parts, lineText(ch.Line))
		case ch.BeforeAfter != nil:
			parts = append(parts, beforeAfterText(ch.BeforeAfter))
		}
	}
	return strings.Join(parts, "\n\n")
}

func newDashboardCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard <name>",
		Short: "Show every chart of a dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := g.filter()
			if err != nil {
				return err
			}
			req := &pb.DashboardRequest{
				Name:     args[0],
				Filter:   f,
				SortBy:   g.sortBy,
				Viewport: pb.Viewport{Width: g.width, Height: g.height},
			}
			return g.run(cmd, func(ctx context.Context, c pb.InsightsServiceClient) error {
				resp, err := c.GetDashboard(ctx, req)
				if err != nil {
					return err
				}
				return g.emit(cmd.OutOrStdout(), resp, func() string { return dashboardText(resp) })
			})
		},
	}
}

func newSVGCmd(g *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "svg <chart-id>",
		Short: "Render a chart as an SVG document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := g.chartRequest(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, c pb.InsightsServiceClient) error {
				resp, err := c.RenderChart(ctx, req)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = fmt.Fprint(cmd.OutOrStdout(), resp.Body)
					return err
				}
				if err := os.WriteFile(output, []byte(resp.Body), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(resp.Body))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default: stdout)")
	return cmd
}

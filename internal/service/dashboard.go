package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/insights-server/internal/repository"
	"github.com/godilite/insights-server/internal/repository/models"
	"github.com/godilite/insights-server/pkg/geometry"
	"github.com/godilite/insights-server/pkg/render"
)

const (
	dbTimeout = 1 * time.Second

	// chartConcurrency caps the per-dashboard fan-out.
	chartConcurrency = 4

	donutRatio = 0.55
)

var (
	ErrNoData            = errors.New("no chart data found")
	ErrStorageFailure    = errors.New("storage failure")
	ErrChartNotFound     = errors.New("chart not found")
	ErrDashboardNotFound = errors.New("dashboard not found")
	ErrWrongKind         = errors.New("wrong chart kind")
	ErrInvalidData       = errors.New("invalid chart data")
)

// DashboardService turns stored fixtures into chart geometry.
type DashboardService struct {
	storage ChartRepository
	logger  *zap.Logger
}

// NewDashboardService creates a new DashboardService instance.
func NewDashboardService(storage ChartRepository, logger *zap.Logger) *DashboardService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &DashboardService{
		storage: storage,
		logger:  logger,
	}
}

// GetPieChart returns slice geometry for a pie or donut chart.
func (s *DashboardService) GetPieChart(ctx context.Context, chartID string, f models.Filter, opts ChartOptions) (PieChart, error) {
	meta, err := s.chart(ctx, chartID, models.KindPie, models.KindDonut)
	if err != nil {
		return PieChart{}, err
	}
	pie, err := s.pie(ctx, meta, f, opts)
	if err != nil {
		return PieChart{}, err
	}
	if !pie.hadRows {
		return PieChart{}, ErrNoData
	}
	return pie.PieChart, nil
}

// GetBarChart returns bar heights scaled to the plot height.
func (s *DashboardService) GetBarChart(ctx context.Context, chartID string, f models.Filter, opts ChartOptions) (BarChart, error) {
	meta, err := s.chart(ctx, chartID, models.KindBar)
	if err != nil {
		return BarChart{}, err
	}
	bar, err := s.bar(ctx, meta, f, opts)
	if err != nil {
		return BarChart{}, err
	}
	if len(bar.Bars) == 0 {
		return BarChart{}, ErrNoData
	}
	return bar, nil
}

// GetLineChart returns line points in axis order.
func (s *DashboardService) GetLineChart(ctx context.Context, chartID string, f models.Filter, opts ChartOptions) (LineChart, error) {
	meta, err := s.chart(ctx, chartID, models.KindLine)
	if err != nil {
		return LineChart{}, err
	}
	line, err := s.line(ctx, meta, f, opts)
	if err != nil {
		return LineChart{}, err
	}
	if len(line.Points) == 0 {
		return LineChart{}, ErrNoData
	}
	return line, nil
}

// GetBeforeAfterChart returns paired comparison bars.
func (s *DashboardService) GetBeforeAfterChart(ctx context.Context, chartID string, f models.Filter) (BeforeAfterChart, error) {
	meta, err := s.chart(ctx, chartID, models.KindBeforeAfter)
	if err != nil {
		return BeforeAfterChart{}, err
	}
	ba, err := s.beforeAfter(ctx, meta, f)
	if err != nil {
		return BeforeAfterChart{}, err
	}
	if len(ba.Bars) == 0 {
		return BeforeAfterChart{}, ErrNoData
	}
	return ba, nil
}

// GetDashboard loads every chart of a dashboard concurrently. Charts keep
// fixture order; a chart with no matching data is returned as Empty.
func (s *DashboardService) GetDashboard(ctx context.Context, name string, f models.Filter, opts ChartOptions) (Dashboard, error) {
	title, charts, err := s.dashboard(ctx, name)
	if err != nil {
		return Dashboard{}, err
	}
	return s.loadCharts(ctx, name, title, charts, f, opts)
}

func (s *DashboardService) dashboard(ctx context.Context, name string) (string, []models.Chart, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	title, err := s.storage.GetDashboardTitle(dbCtx, name)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if title == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrDashboardNotFound, name)
	}
	charts, err := s.storage.ListCharts(dbCtx, name)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return title, charts, nil
}

func (s *DashboardService) loadCharts(ctx context.Context, name, title string, charts []models.Chart, f models.Filter, opts ChartOptions) (Dashboard, error) {
	views := make([]ChartView, len(charts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chartConcurrency)
	for i, c := range charts {
		g.Go(func() error {
			v, err := s.chartView(gctx, metaOf(c), f, opts)
			if err != nil {
				return fmt.Errorf("chart %q: %w", c.ID, err)
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	s.logger.Info("loaded dashboard",
		zap.String("dashboard", name),
		zap.Int("charts", len(views)),
		zap.String("student_id", f.StudentID))

	return Dashboard{Name: name, Title: title, Charts: views}, nil
}

// LoadDashboardAsync starts GetDashboard in the background. The channel
// delivers exactly one result and is then closed.
func (s *DashboardService) LoadDashboardAsync(ctx context.Context, name string, f models.Filter, opts ChartOptions) <-chan DashboardResult {
	out := make(chan DashboardResult, 1)
	go func() {
		defer close(out)
		d, err := s.GetDashboard(ctx, name, f, opts)
		if err != nil {
			out <- DashboardResult{Err: err}
			return
		}
		out <- DashboardResult{Dashboard: d}
	}()
	return out
}

// RenderChartSVG computes a chart's geometry for the requested viewport and
// draws it.
func (s *DashboardService) RenderChartSVG(ctx context.Context, chartID string, f models.Filter, opts ChartOptions) (string, error) {
	meta, err := s.chart(ctx, chartID)
	if err != nil {
		return "", err
	}
	v, err := s.chartView(ctx, meta, f, opts)
	if err != nil {
		return "", err
	}

	svgOpts := opts.svg(meta)
	var doc string
	switch {
	case v.Pie != nil:
		doc, err = render.Pie(v.Pie.Slices, v.Pie.Circle, svgOpts)
	case v.Bar != nil:
		doc, err = render.Bars(v.Bar.Bars, svgOpts)
	case v.Line != nil:
		doc, err = render.Line(v.Line.Points, svgOpts)
	case v.BeforeAfter != nil:
		doc, err = render.BeforeAfter(v.BeforeAfter.Bars, svgOpts)
	default:
		return "", fmt.Errorf("%w: %s", ErrWrongKind, meta.Kind)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return doc, nil
}

// chart loads chart metadata and checks its kind against allowed, if any.
func (s *DashboardService) chart(ctx context.Context, id string, allowed ...models.ChartKind) (ChartMeta, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := s.storage.GetChart(dbCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrChartNotFound) {
			return ChartMeta{}, fmt.Errorf("%w: %q", ErrChartNotFound, id)
		}
		return ChartMeta{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if !c.Kind.Valid() {
		return ChartMeta{}, fmt.Errorf("%w: chart %q has kind %q", ErrInvalidData, id, c.Kind)
	}
	if len(allowed) > 0 && !kindIn(c.Kind, allowed) {
		return ChartMeta{}, fmt.Errorf("%w: chart %q is %s", ErrWrongKind, id, c.Kind)
	}
	return metaOf(c), nil
}

func (s *DashboardService) chartView(ctx context.Context, meta ChartMeta, f models.Filter, opts ChartOptions) (ChartView, error) {
	v := ChartView{Meta: meta}
	switch meta.Kind {
	case models.KindPie, models.KindDonut:
		pie, err := s.pie(ctx, meta, f, opts)
		if err != nil {
			return ChartView{}, err
		}
		v.Pie = &pie.PieChart
		v.Empty = len(pie.Slices) == 0
	case models.KindBar:
		bar, err := s.bar(ctx, meta, f, opts)
		if err != nil {
			return ChartView{}, err
		}
		v.Bar = &bar
		v.Empty = len(bar.Bars) == 0
	case models.KindLine:
		line, err := s.line(ctx, meta, f, opts)
		if err != nil {
			return ChartView{}, err
		}
		v.Line = &line
		v.Empty = len(line.Points) == 0
	case models.KindBeforeAfter:
		ba, err := s.beforeAfter(ctx, meta, f)
		if err != nil {
			return ChartView{}, err
		}
		v.BeforeAfter = &ba
		v.Empty = len(ba.Bars) == 0
	default:
		return ChartView{}, fmt.Errorf("%w: chart %q has kind %q", ErrInvalidData, meta.ID, meta.Kind)
	}
	return v, nil
}

type pieResult struct {
	PieChart
	hadRows bool
}

func (s *DashboardService) pie(ctx context.Context, meta ChartMeta, f models.Filter, opts ChartOptions) (pieResult, error) {
	rows, err := s.labelValues(ctx, meta.ID, f, s.storage.GetDistribution)
	if err != nil {
		return pieResult{}, err
	}
	sortLabelValues(rows, opts.SortBy)

	dist := make(geometry.CategoryDistribution, len(rows))
	for i, r := range rows {
		dist[i] = geometry.Category{Name: r.Label, Weight: r.Value}
	}

	svgOpts := opts.svg(meta)
	circle := svgOpts.PieCircle()
	slices, err := geometry.ComputePieSlices(dist, circle)
	if err != nil {
		return pieResult{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	return pieResult{
		PieChart: PieChart{
			ChartMeta:   meta,
			Circle:      circle,
			InnerRadius: svgOpts.InnerRadius,
			Total:       dist.Total(),
			Slices:      slices,
		},
		hadRows: len(rows) > 0,
	}, nil
}

func (s *DashboardService) bar(ctx context.Context, meta ChartMeta, f models.Filter, opts ChartOptions) (BarChart, error) {
	rows, err := s.labelValues(ctx, meta.ID, f, s.storage.GetSeries)
	if err != nil {
		return BarChart{}, err
	}
	sortLabelValues(rows, opts.SortBy)

	_, plotH := opts.svg(meta).PlotSize()
	out := BarChart{ChartMeta: meta, MaxHeightPx: plotH}
	if len(rows) == 0 {
		return out, nil
	}

	series := toSeries(rows)
	bars, err := geometry.ComputeBarHeights(series, plotH)
	if err != nil {
		return BarChart{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	out.ScaleMax = geometry.ScaleMax(series)
	out.Bars = bars
	return out, nil
}

func (s *DashboardService) line(ctx context.Context, meta ChartMeta, f models.Filter, opts ChartOptions) (LineChart, error) {
	rows, err := s.labelValues(ctx, meta.ID, f, s.storage.GetSeries)
	if err != nil {
		return LineChart{}, err
	}

	plotW, plotH := opts.svg(meta).PlotSize()
	out := LineChart{ChartMeta: meta, Width: float64(plotW), Height: float64(plotH)}
	if len(rows) == 0 {
		return out, nil
	}

	series := toSeries(rows)
	points, err := geometry.ComputeLinePoints(series, out.Width, out.Height)
	if err != nil {
		return LineChart{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	out.ScaleMax = geometry.ScaleMax(series)
	out.Points = points
	out.Polyline = geometry.Polyline(points)
	return out, nil
}

func (s *DashboardService) beforeAfter(ctx context.Context, meta ChartMeta, f models.Filter) (BeforeAfterChart, error) {
	if f.HasTimeRange() {
		s.logger.Debug("time range ignored for comparison chart", zap.String("chart", meta.ID))
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.GetComparisons(dbCtx, meta.ID, f)
	if err != nil {
		return BeforeAfterChart{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	out := BeforeAfterChart{ChartMeta: meta}
	if len(rows) == 0 {
		return out, nil
	}

	metrics := make([]geometry.BeforeAfterMetric, len(rows))
	for i, r := range rows {
		metrics[i] = geometry.BeforeAfterMetric{
			Name:          r.Name,
			Before:        r.Before,
			After:         r.After,
			Unit:          r.Unit,
			LowerIsBetter: r.LowerIsBetter,
		}
	}
	bars, err := geometry.ComputeBeforeAfterBars(metrics)
	if err != nil {
		return BeforeAfterChart{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	out.Bars = bars
	return out, nil
}

type labelValueFunc func(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error)

func (s *DashboardService) labelValues(ctx context.Context, chartID string, f models.Filter, fetch labelValueFunc) ([]models.LabelValue, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := fetch(dbCtx, chartID, f)
	if err != nil {
		s.logger.Error("failed to fetch chart data", zap.String("chart_id", chartID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return rows, nil
}

func sortLabelValues(rows []models.LabelValue, order SortOrder) {
	switch order {
	case SortValueAsc:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value < rows[j].Value })
	case SortValueDesc:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })
	case SortLabel:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
	}
}

func toSeries(rows []models.LabelValue) geometry.MetricSeries {
	series := make(geometry.MetricSeries, len(rows))
	for i, r := range rows {
		series[i] = geometry.SeriesPoint{Label: r.Label, Value: r.Value}
	}
	return series
}

func metaOf(c models.Chart) ChartMeta {
	return ChartMeta{ID: c.ID, Dashboard: c.Dashboard, Title: c.Title, Kind: c.Kind, Unit: c.Unit}
}

func kindIn(k models.ChartKind, allowed []models.ChartKind) bool {
	for _, a := range allowed {
		if k == a {
			return true
		}
	}
	return false
}

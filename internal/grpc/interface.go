package grpc

import (
	"context"
	"time"

	"github.com/godilite/insights-server/internal/repository/models"
	"github.com/godilite/insights-server/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type DashboardService interface {
	GetPieChart(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.PieChart, error)
	GetBarChart(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.BarChart, error)
	GetLineChart(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.LineChart, error)
	GetBeforeAfterChart(ctx context.Context, chartID string, f models.Filter) (service.BeforeAfterChart, error)
	LoadDashboardAsync(ctx context.Context, name string, f models.Filter, opts service.ChartOptions) <-chan service.DashboardResult
	RenderChartSVG(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (string, error)
}

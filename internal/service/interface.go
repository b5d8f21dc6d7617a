package service

import (
	"context"

	"github.com/godilite/insights-server/internal/repository/models"
)

// ChartRepository defines the fixture reads the dashboard service needs.
type ChartRepository interface {
	GetDashboardTitle(ctx context.Context, name string) (string, error)
	ListCharts(ctx context.Context, dashboard string) ([]models.Chart, error)
	GetChart(ctx context.Context, id string) (models.Chart, error)
	GetDistribution(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error)
	GetSeries(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error)
	GetComparisons(ctx context.Context, chartID string, f models.Filter) ([]models.ComparisonMetric, error)
}

package mocks

import (
	"context"
	"errors"

	"github.com/godilite/insights-server/internal/repository/models"
)

// MockChartRepository is a mock implementation of the ChartRepository interface
// for testing the service layer.
type MockChartRepository struct {
	GetDashboardTitleFunc func(ctx context.Context, name string) (string, error)
	ListChartsFunc        func(ctx context.Context, dashboard string) ([]models.Chart, error)
	GetChartFunc          func(ctx context.Context, id string) (models.Chart, error)
	GetDistributionFunc   func(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error)
	GetSeriesFunc         func(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error)
	GetComparisonsFunc    func(ctx context.Context, chartID string, f models.Filter) ([]models.ComparisonMetric, error)
}

func (m *MockChartRepository) GetDashboardTitle(ctx context.Context, name string) (string, error) {
	if m.GetDashboardTitleFunc != nil {
		return m.GetDashboardTitleFunc(ctx, name)
	}
	return "", errors.New("GetDashboardTitleFunc not implemented")
}

func (m *MockChartRepository) ListCharts(ctx context.Context, dashboard string) ([]models.Chart, error) {
	if m.ListChartsFunc != nil {
		return m.ListChartsFunc(ctx, dashboard)
	}
	return nil, errors.New("ListChartsFunc not implemented")
}

func (m *MockChartRepository) GetChart(ctx context.Context, id string) (models.Chart, error) {
	if m.GetChartFunc != nil {
		return m.GetChartFunc(ctx, id)
	}
	return models.Chart{}, errors.New("GetChartFunc not implemented")
}

func (m *MockChartRepository) GetDistribution(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error) {
	if m.GetDistributionFunc != nil {
		return m.GetDistributionFunc(ctx, chartID, f)
	}
	return nil, errors.New("GetDistributionFunc not implemented")
}

func (m *MockChartRepository) GetSeries(ctx context.Context, chartID string, f models.Filter) ([]models.LabelValue, error) {
	if m.GetSeriesFunc != nil {
		return m.GetSeriesFunc(ctx, chartID, f)
	}
	return nil, errors.New("GetSeriesFunc not implemented")
}

func (m *MockChartRepository) GetComparisons(ctx context.Context, chartID string, f models.Filter) ([]models.ComparisonMetric, error) {
	if m.GetComparisonsFunc != nil {
		return m.GetComparisonsFunc(ctx, chartID, f)
	}
	return nil, errors.New("GetComparisonsFunc not implemented")
}

package mocks

import (
	"context"
	"errors"

	"github.com/godilite/insights-server/internal/repository/models"
	"github.com/godilite/insights-server/internal/service"
)

// MockDashboardService is a mock implementation of the DashboardService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockDashboardService struct {
	GetPieChartFunc         func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.PieChart, error)
	GetBarChartFunc         func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.BarChart, error)
	GetLineChartFunc        func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.LineChart, error)
	GetBeforeAfterChartFunc func(ctx context.Context, chartID string, f models.Filter) (service.BeforeAfterChart, error)
	LoadDashboardAsyncFunc  func(ctx context.Context, name string, f models.Filter, opts service.ChartOptions) <-chan service.DashboardResult
	RenderChartSVGFunc      func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (string, error)
}

func (m *MockDashboardService) GetPieChart(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.PieChart, error) {
	if m.GetPieChartFunc != nil {
		return m.GetPieChartFunc(ctx, chartID, f, opts)
	}
	return service.PieChart{}, errors.New("GetPieChartFunc not implemented")
}

func (m *MockDashboardService) GetBarChart(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.BarChart, error) {
	if m.GetBarChartFunc != nil {
		return m.GetBarChartFunc(ctx, chartID, f, opts)
	}
	return service.BarChart{}, errors.New("GetBarChartFunc not implemented")
}

func (m *MockDashboardService) GetLineChart(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.LineChart, error) {
	if m.GetLineChartFunc != nil {
		return m.GetLineChartFunc(ctx, chartID, f, opts)
	}
	return service.LineChart{}, errors.New("GetLineChartFunc not implemented")
}

func (m *MockDashboardService) GetBeforeAfterChart(ctx context.Context, chartID string, f models.Filter) (service.BeforeAfterChart, error) {
	if m.GetBeforeAfterChartFunc != nil {
		return m.GetBeforeAfterChartFunc(ctx, chartID, f)
	}
	return service.BeforeAfterChart{}, errors.New("GetBeforeAfterChartFunc not implemented")
}

// LoadDashboardAsync delivers an error result when no func is set.
func (m *MockDashboardService) LoadDashboardAsync(ctx context.Context, name string, f models.Filter, opts service.ChartOptions) <-chan service.DashboardResult {
	if m.LoadDashboardAsyncFunc != nil {
		return m.LoadDashboardAsyncFunc(ctx, name, f, opts)
	}
	ch := make(chan service.DashboardResult, 1)
	ch <- service.DashboardResult{Err: errors.New("LoadDashboardAsyncFunc not implemented")}
	close(ch)
	return ch
}

func (m *MockDashboardService) RenderChartSVG(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (string, error) {
	if m.RenderChartSVGFunc != nil {
		return m.RenderChartSVGFunc(ctx, chartID, f, opts)
	}
	return "", errors.New("RenderChartSVGFunc not implemented")
}

// Resolved returns a closed channel holding one result.
func Resolved(d service.Dashboard, err error) <-chan service.DashboardResult {
	ch := make(chan service.DashboardResult, 1)
	ch <- service.DashboardResult{Dashboard: d, Err: err}
	close(ch)
	return ch
}

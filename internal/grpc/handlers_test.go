package grpc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	pb "github.com/godilite/insights-server/api/v1"
	"github.com/godilite/insights-server/internal/grpc/mocks"
	"github.com/godilite/insights-server/internal/repository/models"
	"github.com/godilite/insights-server/internal/service"
	"github.com/godilite/insights-server/pkg/geometry"
)

func samplePie() service.PieChart {
	circle := geometry.Circle{CX: 100, CY: 100, R: 80}
	slices, _ := geometry.ComputePieSlices(geometry.CategoryDistribution{
		{Name: "Implemented", Weight: 28},
		{Name: "In Progress", Weight: 10},
		{Name: "Pending", Weight: 4},
	}, circle)
	return service.PieChart{
		ChartMeta: service.ChartMeta{ID: "sv-suggestions", Dashboard: "student-voice", Title: "Suggestion status", Kind: models.KindPie},
		Circle:    circle,
		Total:     42,
		Slices:    slices,
	}
}

// TestNewGRPCHandlers tests the constructor
func TestNewGRPCHandlers(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{}
		mockCache := &mocks.MockCacher{}
		ttl := 5 * time.Minute

		handlers := NewGRPCHandlers(mockSvc, mockCache, zap.NewNop(), ttl)

		assert.NotNil(t, handlers)
		assert.Equal(t, mockSvc, handlers.dashboards)
		assert.Equal(t, mockCache, handlers.cache)
		assert.Equal(t, ttl, handlers.cacheTTL)
		assert.NotNil(t, handlers.logger)
		assert.NotNil(t, handlers.validate)
	})

	t.Run("nil service panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGRPCHandlers(nil, &mocks.MockCacher{}, zap.NewNop(), time.Minute)
		})
	})

	t.Run("nil logger and nil cache are allowed", func(t *testing.T) {
		handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, nil, nil, time.Minute)

		assert.NotNil(t, handlers.logger)
		assert.Nil(t, handlers.cache)
	})

	t.Run("non-positive TTL uses default", func(t *testing.T) {
		for _, ttl := range []time.Duration{0, -time.Minute} {
			handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, nil, zap.NewNop(), ttl)
			assert.Equal(t, defaultCacheDuration, handlers.cacheTTL)
		}
	})
}

// TestRequestValidation tests request validation through the actual handler methods
func TestRequestValidation(t *testing.T) {
	var got models.Filter
	var gotOpts service.ChartOptions
	mockSvc := &mocks.MockDashboardService{
		GetPieChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.PieChart, error) {
			got, gotOpts = f, opts
			return samplePie(), nil
		},
	}
	handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)
	ctx := context.Background()

	t.Run("valid request maps filter and options", func(t *testing.T) {
		from := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
		req := &pb.ChartRequest{
			ChartID: "sv-suggestions",
			Filter: &pb.ChartFilter{
				StudentID: " stu-001 ",
				From:      timestamppb.New(from),
				To:        timestamppb.New(to),
				Search:    "impl",
			},
			SortBy:   "value_desc",
			Viewport: pb.Viewport{Width: 800, Height: 400},
		}

		resp, err := handlers.GetPieChart(ctx, req)

		require.NoError(t, err)
		assert.Len(t, resp.Slices, 3)
		assert.Equal(t, models.Filter{StudentID: "stu-001", From: from, To: to, Search: "impl"}, got)
		assert.Equal(t, service.ChartOptions{SortBy: service.SortValueDesc, Width: 800, Height: 400}, gotOpts)
	})

	tests := []struct {
		name string
		req  *pb.ChartRequest
		want string
	}{
		{"missing chart id", &pb.ChartRequest{}, "chartid failed required"},
		{"unknown sort", &pb.ChartRequest{ChartID: "c", SortBy: "random"}, "sortby failed oneof"},
		{"viewport too small", &pb.ChartRequest{ChartID: "c", Viewport: pb.Viewport{Width: 50}}, "width failed min"},
		{"to before from", &pb.ChartRequest{ChartID: "c", Filter: &pb.ChartFilter{
			From: timestamppb.New(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
			To:   timestamppb.New(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		}}, "to must not be before from"},
		{"invalid timestamp", &pb.ChartRequest{ChartID: "c", Filter: &pb.ChartFilter{
			From: &timestamppb.Timestamp{Seconds: 1, Nanos: -1},
		}}, "invalid from timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := handlers.GetPieChart(ctx, tt.req)

			assert.Nil(t, resp)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("dashboard name required", func(t *testing.T) {
		resp, err := handlers.GetDashboard(ctx, &pb.DashboardRequest{})

		assert.Nil(t, resp)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

// TestNormalizeKey tests cache key generation
func TestNormalizeKey(t *testing.T) {
	q := chartQuery{
		filter: models.Filter{
			StudentID: "stu-001",
			From:      time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			Search:    "Math",
		},
		opts: service.ChartOptions{SortBy: service.SortValueDesc},
	}

	t.Run("basic key generation", func(t *testing.T) {
		key := normalizeKey(cacheKeyPieChart, "sv", q)

		assert.Equal(t, `grpc:pie_chart:"sv":s="stu-001":f=2025-10-01T00:00:00Z:t=-:q="Math":o=value_desc:v=0x0`, key)
	})

	t.Run("search is keyed as given", func(t *testing.T) {
		for _, pair := range [][2]string{{"Math", "MATH"}, {"Émotions", "émotions"}} {
			a, b := q, q
			a.filter.Search, b.filter.Search = pair[0], pair[1]

			assert.NotEqual(t, normalizeKey(cacheKeyPieChart, "sv", a), normalizeKey(cacheKeyPieChart, "sv", b), "%q vs %q", pair[0], pair[1])
		}
	})

	t.Run("timezone conversion", func(t *testing.T) {
		other := q
		other.filter.From = time.Date(2025, 10, 1, 2, 0, 0, 0, time.FixedZone("CEST", 2*3600))

		assert.Equal(t, normalizeKey(cacheKeyPieChart, "sv", q), normalizeKey(cacheKeyPieChart, "sv", other))
	})

	t.Run("every input changes the key", func(t *testing.T) {
		base := normalizeKey(cacheKeyPieChart, "sv", q)
		variants := []chartQuery{q, q, q, q}
		variants[0].filter.StudentID = "stu-002"
		variants[1].filter.To = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
		variants[2].opts.SortBy = service.SortLabel
		variants[3].opts.Width = 800

		for i, v := range variants {
			assert.NotEqual(t, base, normalizeKey(cacheKeyPieChart, "sv", v), "variant %d", i)
		}
		assert.NotEqual(t, base, normalizeKey(cacheKeyBarChart, "sv", q))
		assert.NotEqual(t, base, normalizeKey(cacheKeyPieChart, "other", q))
	})

	t.Run("separators in values cannot collide", func(t *testing.T) {
		a := normalizeKey(cacheKeyDashboard, `a:s="b"`, chartQuery{})
		b := normalizeKey(cacheKeyDashboard, "a", chartQuery{filter: models.Filter{StudentID: "b"}})

		assert.NotEqual(t, a, b)
	})
}

// TestSearchCaseVariantsAreCachedApart checks that Unicode case variants of a
// search term never share a cached answer
func TestSearchCaseVariantsAreCachedApart(t *testing.T) {
	var calls atomic.Int32
	mockSvc := &mocks.MockDashboardService{
		GetPieChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.PieChart, error) {
			calls.Add(1)
			pie := samplePie()
			pie.Title = f.Search
			return pie, nil
		},
	}
	cache := mocks.NewMemoryCacher()
	handlers := NewGRPCHandlers(mockSvc, cache, zap.NewNop(), time.Minute)
	ctx := context.Background()

	for i, search := range []string{"émotions", "Émotions"} {
		resp, err := handlers.GetPieChart(ctx, &pb.ChartRequest{ChartID: "sv-suggestions", Filter: &pb.ChartFilter{Search: search}})

		require.NoError(t, err)
		assert.Equal(t, search, resp.Chart.Title)
		require.Eventually(t, func() bool { return cache.Sets() == i+1 }, time.Second, 5*time.Millisecond)
	}
	assert.Equal(t, int32(2), calls.Load())
}

// TestHandleError tests error handling and status code mapping
func TestHandleError(t *testing.T) {
	handlers := &GRPCHandlers{logger: zap.NewNop()}

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := handlers.handleError(ctx, "test_operation", errors.New("some error"))

		assert.Equal(t, codes.Canceled, status.Code(err))
		assert.Contains(t, err.Error(), "request canceled")
	})

	t.Run("context deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		err := handlers.handleError(ctx, "test_operation", errors.New("some error"))

		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
		assert.Contains(t, err.Error(), "request timed out")
	})

	tests := []struct {
		name     string
		err      error
		code     codes.Code
		contains string
	}{
		{"shared fetch canceled", fmt.Errorf("fetch: %w", context.Canceled), codes.Canceled, "request canceled"},
		{"shared fetch timed out", context.DeadlineExceeded, codes.DeadlineExceeded, "request timed out"},
		{"no data", service.ErrNoData, codes.NotFound, "no data found"},
		{"chart not found", fmt.Errorf("%w: %q", service.ErrChartNotFound, "x"), codes.NotFound, `chart not found: "x"`},
		{"dashboard not found", fmt.Errorf("%w: %q", service.ErrDashboardNotFound, "d"), codes.NotFound, "dashboard not found"},
		{"wrong kind", fmt.Errorf("%w: chart %q is bar", service.ErrWrongKind, "x"), codes.FailedPrecondition, "is bar"},
		{"storage failure", fmt.Errorf("%w: disk", service.ErrStorageFailure), codes.Internal, "database error"},
		{"invalid data", fmt.Errorf("%w: NaN", service.ErrInvalidData), codes.Internal, "cannot be drawn"},
		{"flattened sentinel text is unknown", errors.New("wrapped: " + service.ErrNoData.Error()), codes.Internal, "test_operation failed"},
		{"unknown", errors.New("database connection lost"), codes.Internal, "database connection lost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handlers.handleError(context.Background(), "test_operation", tt.err)

			assert.Equal(t, tt.code, status.Code(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

// TestToProto tests data transformation
func TestToProto(t *testing.T) {
	t.Run("pie slices carry paths", func(t *testing.T) {
		resp := toProtoPie(samplePie())

		require.Len(t, resp.Slices, 3)
		assert.Equal(t, "pie", resp.Chart.Kind)
		assert.Equal(t, int32(67), resp.Slices[0].Label)
		assert.Equal(t, int32(1), resp.Slices[0].LargeArcFlag)
		assert.Contains(t, resp.Slices[0].Path, "M100.00 100.00")
		assert.Equal(t, 80.0, resp.Circle.R)
	})

	t.Run("donut uses annular paths", func(t *testing.T) {
		pie := samplePie()
		pie.InnerRadius = 40

		resp := toProtoPie(pie)

		assert.Contains(t, resp.Slices[0].Path, "A40.00 40.00")
		assert.Equal(t, 40.0, resp.InnerRadius)
	})

	t.Run("dashboard sets exactly one payload", func(t *testing.T) {
		pie := samplePie()
		line := service.LineChart{ChartMeta: service.ChartMeta{ID: "trend", Kind: models.KindLine}}
		d := service.Dashboard{
			Name:  "student-voice",
			Title: "Student Voice Impact",
			Charts: []service.ChartView{
				{Meta: pie.ChartMeta, Pie: &pie},
				{Meta: line.ChartMeta, Line: &line, Empty: true},
			},
		}

		resp := toProtoDashboard(d)

		require.Len(t, resp.Charts, 2)
		assert.NotNil(t, resp.Charts[0].Pie)
		assert.Nil(t, resp.Charts[0].Line)
		assert.NotNil(t, resp.Charts[1].Line)
		assert.True(t, resp.Charts[1].Empty)
		assert.Empty(t, resp.Charts[1].Line.Points)
	})

	t.Run("before after", func(t *testing.T) {
		resp := toProtoBeforeAfter(service.BeforeAfterChart{
			Bars: []geometry.BeforeAfterBar{{Name: "Reported Incidents", BeforePct: 24, AfterPct: 12, Delta: -12, Improved: true}},
		})

		require.Len(t, resp.Bars, 1)
		assert.True(t, resp.Bars[0].Improved)
		assert.Equal(t, -12.0, resp.Bars[0].Delta)
	})
}

// TestErrorHandling_ServiceErrors tests error propagation from the service layer
func TestErrorHandling_ServiceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("bar chart wrong kind", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{
			GetBarChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.BarChart, error) {
				return service.BarChart{}, fmt.Errorf("%w: chart %q is pie", service.ErrWrongKind, chartID)
			},
		}
		handlers := NewGRPCHandlers(mockSvc, &mocks.MockCacher{}, zap.NewNop(), time.Minute)

		resp, err := handlers.GetBarChart(ctx, &pb.ChartRequest{ChartID: "sv-suggestions"})

		assert.Nil(t, resp)
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("line chart no data", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{
			GetLineChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.LineChart, error) {
				return service.LineChart{}, service.ErrNoData
			},
		}
		handlers := NewGRPCHandlers(mockSvc, &mocks.MockCacher{}, zap.NewNop(), time.Minute)

		resp, err := handlers.GetLineChart(ctx, &pb.ChartRequest{ChartID: "wb-mood"})

		assert.Nil(t, resp)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("before after storage failure", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{
			GetBeforeAfterChartFunc: func(ctx context.Context, chartID string, f models.Filter) (service.BeforeAfterChart, error) {
				return service.BeforeAfterChart{}, service.ErrStorageFailure
			},
		}
		handlers := NewGRPCHandlers(mockSvc, &mocks.MockCacher{}, zap.NewNop(), time.Minute)

		resp, err := handlers.GetBeforeAfterChart(ctx, &pb.ChartRequest{ChartID: "sv-outcomes"})

		assert.Nil(t, resp)
		assert.Equal(t, codes.Internal, status.Code(err))
		assert.Contains(t, err.Error(), "database error")
	})

	t.Run("dashboard not found", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{
			LoadDashboardAsyncFunc: func(ctx context.Context, name string, f models.Filter, opts service.ChartOptions) <-chan service.DashboardResult {
				return mocks.Resolved(service.Dashboard{}, fmt.Errorf("%w: %q", service.ErrDashboardNotFound, name))
			},
		}
		handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.GetDashboard(ctx, &pb.DashboardRequest{Name: "nope"})

		assert.Nil(t, resp)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("dashboard that never resolves times out", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{
			LoadDashboardAsyncFunc: func(ctx context.Context, name string, f models.Filter, opts service.ChartOptions) <-chan service.DashboardResult {
				return make(chan service.DashboardResult)
			},
		}
		handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)
		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		resp, err := handlers.GetDashboard(tctx, &pb.DashboardRequest{Name: "student-voice"})

		assert.Nil(t, resp)
		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	})
}

// TestSuccessfulCalls tests successful handler calls with function-based mocks
func TestSuccessfulCalls(t *testing.T) {
	ctx := context.Background()

	t.Run("GetPieChart is served from cache on the second call", func(t *testing.T) {
		var calls atomic.Int32
		mockSvc := &mocks.MockDashboardService{
			GetPieChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.PieChart, error) {
				calls.Add(1)
				return samplePie(), nil
			},
		}
		cache := mocks.NewMemoryCacher()
		handlers := NewGRPCHandlers(mockSvc, cache, zap.NewNop(), time.Minute)
		req := &pb.ChartRequest{ChartID: "sv-suggestions"}

		first, err := handlers.GetPieChart(ctx, req)
		require.NoError(t, err)
		require.Eventually(t, func() bool { return cache.Sets() == 1 }, time.Second, 5*time.Millisecond)

		second, err := handlers.GetPieChart(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, first, second)
	})

	t.Run("GetBarChart", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{
			GetBarChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.BarChart, error) {
				return service.BarChart{
					ChartMeta:   service.ChartMeta{ID: chartID, Kind: models.KindBar},
					MaxHeightPx: 100,
					ScaleMax:    110,
					Bars:        []geometry.BarHeight{{Label: "a", Value: 10, HeightPx: 9}, {Label: "b", Value: 100, HeightPx: 91}},
				}, nil
			},
		}
		handlers := NewGRPCHandlers(mockSvc, &mocks.MockCacher{}, zap.NewNop(), time.Minute)

		resp, err := handlers.GetBarChart(ctx, &pb.ChartRequest{ChartID: "wb-support"})

		require.NoError(t, err)
		assert.Equal(t, "wb-support", resp.Chart.ID)
		assert.Equal(t, int32(91), resp.Bars[1].HeightPx)
	})

	t.Run("GetLineChart", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{
			GetLineChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.LineChart, error) {
				points := []geometry.LinePoint{{Label: "Jan", X: 0, Y: 10}, {Label: "Feb", X: 5.5, Y: 2.25}}
				return service.LineChart{Points: points, Polyline: geometry.Polyline(points)}, nil
			},
		}
		handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.GetLineChart(ctx, &pb.ChartRequest{ChartID: "lp-mastery"})

		require.NoError(t, err)
		assert.Equal(t, "0.00,10.00 5.50,2.25", resp.Polyline)
	})

	t.Run("GetDashboard", func(t *testing.T) {
		pie := samplePie()
		mockSvc := &mocks.MockDashboardService{
			LoadDashboardAsyncFunc: func(ctx context.Context, name string, f models.Filter, opts service.ChartOptions) <-chan service.DashboardResult {
				return mocks.Resolved(service.Dashboard{
					Name:   name,
					Title:  "Student Voice Impact",
					Charts: []service.ChartView{{Meta: pie.ChartMeta, Pie: &pie}},
				}, nil)
			},
		}
		handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.GetDashboard(ctx, &pb.DashboardRequest{Name: "student-voice"})

		require.NoError(t, err)
		assert.Equal(t, "Student Voice Impact", resp.Title)
		require.Len(t, resp.Charts, 1)
		assert.Len(t, resp.Charts[0].Pie.Slices, 3)
	})

	t.Run("RenderChart", func(t *testing.T) {
		mockSvc := &mocks.MockDashboardService{
			RenderChartSVGFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (string, error) {
				return "<svg></svg>", nil
			},
		}
		handlers := NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.RenderChart(ctx, &pb.ChartRequest{ChartID: "sv-suggestions"})

		require.NoError(t, err)
		assert.Equal(t, "image/svg+xml", resp.ContentType)
		assert.Equal(t, "<svg></svg>", resp.Body)
	})
}

package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/godilite/insights-server/api/v1"
	"github.com/godilite/insights-server/internal/repository/models"
	"github.com/godilite/insights-server/internal/service"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second
)

type CacheKeyType string

const (
	cacheKeyPieChart         CacheKeyType = "grpc:pie_chart"
	cacheKeyBarChart         CacheKeyType = "grpc:bar_chart"
	cacheKeyLineChart        CacheKeyType = "grpc:line_chart"
	cacheKeyBeforeAfterChart CacheKeyType = "grpc:before_after_chart"
	cacheKeyDashboard        CacheKeyType = "grpc:dashboard"
	cacheKeyRenderedChart    CacheKeyType = "grpc:rendered_chart"
)

type GRPCHandlers struct {
	pb.UnimplementedInsightsServiceServer
	dashboards DashboardService
	cache      Cacher
	logger     *zap.Logger
	validate   *validator.Validate
	sfGroup    singleflight.Group
	cacheTTL   time.Duration
}

// NewGRPCHandlers initializes the gRPC handlers. cache may be nil.
func NewGRPCHandlers(dashboards DashboardService, cache Cacher, logger *zap.Logger, ttl time.Duration) *GRPCHandlers {
	if dashboards == nil {
		panic("nil DashboardService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &GRPCHandlers{
		dashboards: dashboards,
		cache:      cache,
		logger:     logger.Named("grpc-handler"),
		validate:   validator.New(),
		cacheTTL:   ttl,
	}
}

// chartQuery is a validated request in service terms.
type chartQuery struct {
	filter models.Filter
	opts   service.ChartOptions
}

func (s *GRPCHandlers) parseAndValidate(req any, filter *pb.ChartFilter, sortBy string, vp pb.Viewport) (chartQuery, error) {
	if err := s.validate.Struct(req); err != nil {
		return chartQuery{}, status.Error(codes.InvalidArgument, validationMessage(err))
	}

	var q chartQuery
	if filter.GetFrom() != nil {
		if err := filter.GetFrom().CheckValid(); err != nil {
			return chartQuery{}, status.Error(codes.InvalidArgument, "invalid from timestamp")
		}
		q.filter.From = filter.GetFrom().AsTime()
	}
	if filter.GetTo() != nil {
		if err := filter.GetTo().CheckValid(); err != nil {
			return chartQuery{}, status.Error(codes.InvalidArgument, "invalid to timestamp")
		}
		q.filter.To = filter.GetTo().AsTime()
	}
	if !q.filter.From.IsZero() && !q.filter.To.IsZero() && q.filter.To.Before(q.filter.From) {
		return chartQuery{}, status.Error(codes.InvalidArgument, "to must not be before from")
	}
	q.filter.StudentID = strings.TrimSpace(filter.GetStudentID())
	q.filter.Search = strings.TrimSpace(filter.GetSearch())

	order, err := service.ParseSortOrder(sortBy)
	if err != nil {
		return chartQuery{}, status.Error(codes.InvalidArgument, err.Error())
	}
	q.opts = service.ChartOptions{SortBy: order, Width: int(vp.Width), Height: int(vp.Height)}
	return q, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "invalid request: " + strings.Join(msgs, ", ")
}

// normalizeKey builds a cache key from everything that changes the result.
// Search is keyed as given: SQLite LIKE folds ASCII case only, so Unicode
// case variants can match different rows.
func normalizeKey(prefix CacheKeyType, id string, q chartQuery) string {
	from, to := "-", "-"
	if !q.filter.From.IsZero() {
		from = q.filter.From.UTC().Format(time.RFC3339)
	}
	if !q.filter.To.IsZero() {
		to = q.filter.To.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s:%q:s=%q:f=%s:t=%s:q=%q:o=%s:v=%dx%d",
		prefix, id, q.filter.StudentID, from, to,
		q.filter.Search, q.opts.SortBy, q.opts.Width, q.opts.Height)
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	// a shared fetch can fail with the leader's context error while ours is live
	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Warn("shared fetch canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("shared fetch timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, service.ErrNoData):
		s.logger.Info("no chart data found", zap.String("op", op))
		return status.Error(codes.NotFound, "no data found for the given filter")
	case errors.Is(err, service.ErrChartNotFound), errors.Is(err, service.ErrDashboardNotFound):
		s.logger.Info("not found", zap.String("op", op), zap.Error(err))
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrWrongKind):
		s.logger.Info("wrong chart kind", zap.String("op", op), zap.Error(err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	case errors.Is(err, service.ErrInvalidData):
		s.logger.Error("invalid chart data", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "chart data cannot be drawn")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) GetPieChart(ctx context.Context, req *pb.ChartRequest) (*pb.PieChartResponse, error) {
	q, err := s.parseAndValidate(req, req.Filter, req.SortBy, req.Viewport)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyPieChart, req.ChartID, q)

	pie, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.PieChart, error) {
		return s.dashboards.GetPieChart(fetchCtx, req.ChartID, q.filter, q.opts)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetPieChart", err)
	}

	return toProtoPie(pie), nil
}

func (s *GRPCHandlers) GetBarChart(ctx context.Context, req *pb.ChartRequest) (*pb.BarChartResponse, error) {
	q, err := s.parseAndValidate(req, req.Filter, req.SortBy, req.Viewport)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyBarChart, req.ChartID, q)

	bar, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.BarChart, error) {
		return s.dashboards.GetBarChart(fetchCtx, req.ChartID, q.filter, q.opts)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetBarChart", err)
	}

	return toProtoBar(bar), nil
}

func (s *GRPCHandlers) GetLineChart(ctx context.Context, req *pb.ChartRequest) (*pb.LineChartResponse, error) {
	q, err := s.parseAndValidate(req, req.Filter, req.SortBy, req.Viewport)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyLineChart, req.ChartID, q)

	line, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.LineChart, error) {
		return s.dashboards.GetLineChart(fetchCtx, req.ChartID, q.filter, q.opts)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetLineChart", err)
	}

	return toProtoLine(line), nil
}

func (s *GRPCHandlers) GetBeforeAfterChart(ctx context.Context, req *pb.ChartRequest) (*pb.BeforeAfterChartResponse, error) {
	q, err := s.parseAndValidate(req, req.Filter, req.SortBy, req.Viewport)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyBeforeAfterChart, req.ChartID, q)

	ba, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.BeforeAfterChart, error) {
		return s.dashboards.GetBeforeAfterChart(fetchCtx, req.ChartID, q.filter)
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetBeforeAfterChart", err)
	}

	return toProtoBeforeAfter(ba), nil
}

func (s *GRPCHandlers) GetDashboard(ctx context.Context, req *pb.DashboardRequest) (*pb.DashboardResponse, error) {
	q, err := s.parseAndValidate(req, req.Filter, req.SortBy, req.Viewport)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyDashboard, req.Name, q)

	d, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (service.Dashboard, error) {
		select {
		case res := <-s.dashboards.LoadDashboardAsync(fetchCtx, req.Name, q.filter, q.opts):
			return res.Dashboard, res.Err
		case <-fetchCtx.Done():
			return service.Dashboard{}, fetchCtx.Err()
		}
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetDashboard", err)
	}

	return toProtoDashboard(d), nil
}

func (s *GRPCHandlers) RenderChart(ctx context.Context, req *pb.ChartRequest) (*pb.RenderChartResponse, error) {
	q, err := s.parseAndValidate(req, req.Filter, req.SortBy, req.Viewport)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	cacheKey := normalizeKey(cacheKeyRenderedChart, req.ChartID, q)

	doc, err := FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(fetchCtx context.Context) (string, error) {
		return s.dashboards.RenderChartSVG(fetchCtx, req.ChartID, q.filter, q.opts)
	})
	if err != nil {
		return nil, s.handleError(ctx, "RenderChart", err)
	}

	return &pb.RenderChartResponse{ContentType: "image/svg+xml", Body: doc}, nil
}

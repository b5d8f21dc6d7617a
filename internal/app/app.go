package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	pb "github.com/godilite/insights-server/api/v1"
	"github.com/godilite/insights-server/internal/config"
	"github.com/godilite/insights-server/internal/fixtures"
	handler "github.com/godilite/insights-server/internal/grpc"
	"github.com/godilite/insights-server/internal/repository"
	"github.com/godilite/insights-server/internal/service"
	"github.com/godilite/insights-server/pkg/cache"
	dbbuilder "github.com/godilite/insights-server/pkg/database"
	grpcsrv "github.com/godilite/insights-server/pkg/grpc/server"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	grpcServer *grpcsrv.Server
}

type Option func(*appOptions)

type appOptions struct {
	listener net.Listener
}

// WithListener serves gRPC on lis instead of cfg.GRPCPort.
func WithListener(lis net.Listener) Option {
	return func(o *appOptions) {
		o.listener = lis
	}
}

// NewApp opens the database, loads the chart fixtures, connects the optional
// cache and builds the gRPC server. Nothing is served until Start or Run.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}

	dbPool, err := dbbuilder.NewContext(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithPingTimeout(cfg.DBPingTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	a := &App{logger: logger, dbPool: dbPool}

	chartRepo := repository.NewChartRepository(dbPool)
	if err := loadFixtures(ctx, chartRepo, cfg.FixturesPath, logger); err != nil {
		a.closeResources()
		return nil, err
	}

	var cacher handler.Cacher
	if cfg.CacheEnabled() {
		a.cache, err = cache.New(ctx, cache.WithAddress(cfg.RedisAddr))
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		if n, err := a.cache.Purge(ctx); err != nil {
			logger.Warn("cache purge failed", zap.Error(err))
		} else {
			logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr), zap.Int("purged", n))
		}
		cacher = a.cache
	} else {
		logger.Info("Cache disabled, REDIS_ADDR not set")
	}

	dashboardService := service.NewDashboardService(chartRepo, logger)

	grpcHandlers := handler.NewGRPCHandlers(dashboardService, cacher, logger, cfg.CacheTTL)

	serverOpts := []grpcsrv.Option{
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithLogging(true),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
	}
	if options.listener != nil {
		serverOpts = append(serverOpts, grpcsrv.WithListener(options.listener))
	}

	a.grpcServer, err = grpcsrv.New(serverOpts...)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	a.grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterInsightsServiceServer(s, grpcHandlers)
	})

	return a, nil
}

func loadFixtures(ctx context.Context, repo *repository.ChartRepository, path string, logger *zap.Logger) error {
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("schema init failed: %w", err)
	}

	bundle, err := fixtures.LoadFile(path)
	if err != nil {
		return fmt.Errorf("fixtures load failed: %w", err)
	}

	if err := repo.ReplaceAll(ctx, bundle.Models()); err != nil {
		return fmt.Errorf("fixtures import failed: %w", err)
	}

	source := path
	if source == "" {
		source = "embedded"
	}
	logger.Info("Fixtures loaded", zap.String("source", source), zap.Int("dashboards", len(bundle.Dashboards)))
	return nil
}

// Addr is the address the gRPC server listens on.
func (a *App) Addr() net.Addr {
	return a.grpcServer.Addr()
}

// Start serves in the background.
func (a *App) Start() {
	a.logger.Info("application starting")
	a.grpcServer.Start()
}

// Run starts the application and blocks until ctx is done or a shutdown
// signal is received.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Start()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops the server, then releases the cache and database.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("application shutting down")

	var errs []error
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		a.logger.Info("graceful shutdown completed successfully")
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

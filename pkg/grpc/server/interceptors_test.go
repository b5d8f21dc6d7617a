package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/insights.v1.InsightsService/GetPieChart"}

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	interceptor := LoggingInterceptor(zap.New(core))

	t.Run("successful request", func(t *testing.T) {
		resp, err := interceptor(context.Background(), "req", testInfo, func(ctx context.Context, req any) (any, error) {
			return "success", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "success", resp)
		entries := logs.TakeAll()
		require.Len(t, entries, 2)
		assert.Equal(t, "gRPC request completed", entries[1].Message)
		assert.Equal(t, "OK", entries[1].ContextMap()["status_code"])
	})

	t.Run("error request", func(t *testing.T) {
		_, err := interceptor(context.Background(), "req", testInfo, func(ctx context.Context, req any) (any, error) {
			return nil, status.Error(codes.NotFound, "no data")
		})

		assert.Equal(t, codes.NotFound, status.Code(err))
		entries := logs.TakeAll()
		require.Len(t, entries, 2)
		assert.Equal(t, "gRPC request failed", entries[1].Message)
		assert.Equal(t, "NotFound", entries[1].ContextMap()["status_code"])
	})
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := RequestIDInterceptor()
	capture := func(out *string) grpc.UnaryHandler {
		return func(ctx context.Context, req any) (any, error) {
			*out = RequestID(ctx)
			return nil, nil
		}
	}

	t.Run("mints a uuid", func(t *testing.T) {
		var id string
		_, err := interceptor(context.Background(), nil, testInfo, capture(&id))

		require.NoError(t, err)
		_, perr := uuid.Parse(id)
		assert.NoError(t, perr)
	})

	t.Run("reuses the caller id", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "abc-123"))
		var id string
		_, err := interceptor(ctx, nil, testInfo, capture(&id))

		require.NoError(t, err)
		assert.Equal(t, "abc-123", id)
	})

	t.Run("missing id on a bare context", func(t *testing.T) {
		assert.Empty(t, RequestID(context.Background()))
	})
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zaptest.NewLogger(t))

	resp, err := interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		panic("divide by zero")
	})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestNew_InvalidPort(t *testing.T) {
	_, err := New(WithPort(70000))
	assert.ErrorContains(t, err, "invalid port 70000")
}

func TestServerBuilderWithLogging(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	seen := make(chan string, 4)
	server, err := New(
		WithListener(lis),
		WithLogger(zaptest.NewLogger(t)),
		WithLogging(true),
		WithReflection(true),
		WithUnaryInterceptors(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			seen <- RequestID(ctx)
			return handler(ctx, req)
		}),
	)
	require.NoError(t, err)
	require.NotNil(t, server.grpcServer)
	require.NotNil(t, server.healthServer)
	assert.Equal(t, lis.Addr(), server.Addr())

	server.RegisterServiceWithHealth("insights.v1.InsightsService", func(*grpc.Server) {})
	server.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(server.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthClient := healthpb.NewHealthClient(conn)

	var header metadata.MD
	resp, err := healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: "insights.v1.InsightsService"}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
	require.Len(t, header.Get(RequestIDHeader), 1)
	assert.Equal(t, header.Get(RequestIDHeader)[0], <-seen)

	server.SetServiceHealth("insights.v1.InsightsService", healthpb.HealthCheckResponse_NOT_SERVING)
	resp, err = healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: "insights.v1.InsightsService"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

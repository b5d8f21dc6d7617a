package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/timestamppb"

	pb "github.com/godilite/insights-server/api/v1"
	"github.com/godilite/insights-server/internal/grpc/mocks"
	"github.com/godilite/insights-server/internal/repository/models"
	"github.com/godilite/insights-server/internal/service"
)

func dialBufconn(t *testing.T, srv pb.InsightsServiceServer) pb.InsightsServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	pb.RegisterInsightsServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return pb.NewInsightsServiceClient(conn)
}

// TestJSONRoundTrip tests requests and responses over a real gRPC connection
func TestJSONRoundTrip(t *testing.T) {
	from := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	var gotFilter models.Filter

	mockSvc := &mocks.MockDashboardService{
		GetPieChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.PieChart, error) {
			gotFilter = f
			return samplePie(), nil
		},
		GetBarChartFunc: func(ctx context.Context, chartID string, f models.Filter, opts service.ChartOptions) (service.BarChart, error) {
			return service.BarChart{}, service.ErrWrongKind
		},
	}
	client := dialBufconn(t, NewGRPCHandlers(mockSvc, nil, zap.NewNop(), time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("pie chart", func(t *testing.T) {
		resp, err := client.GetPieChart(ctx, &pb.ChartRequest{
			ChartID: "sv-suggestions",
			Filter:  &pb.ChartFilter{StudentID: "stu-001", From: timestamppb.New(from)},
		})

		require.NoError(t, err)
		require.Len(t, resp.Slices, 3)
		assert.Equal(t, "Implemented", resp.Slices[0].Category)
		assert.Equal(t, int32(67), resp.Slices[0].Label)
		assert.Equal(t, 360.0, resp.Slices[2].EndAngle)
		assert.Equal(t, "stu-001", gotFilter.StudentID)
		assert.True(t, gotFilter.From.Equal(from))
	})

	t.Run("status codes survive the wire", func(t *testing.T) {
		_, err := client.GetBarChart(ctx, &pb.ChartRequest{ChartID: "sv-suggestions"})

		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("validation happens server side", func(t *testing.T) {
		_, err := client.GetLineChart(ctx, &pb.ChartRequest{})

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("unexpected service errors", func(t *testing.T) {
		_, err := client.RenderChart(ctx, &pb.ChartRequest{ChartID: "x"})

		assert.Equal(t, codes.Internal, status.Code(err))
	})
}

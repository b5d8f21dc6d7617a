package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/godilite/insights-server/pkg/grpc/codec"
)

const ServiceName = "insights.v1.InsightsService"

const (
	InsightsService_GetPieChart_FullMethodName         = "/" + ServiceName + "/GetPieChart"
	InsightsService_GetBarChart_FullMethodName         = "/" + ServiceName + "/GetBarChart"
	InsightsService_GetLineChart_FullMethodName        = "/" + ServiceName + "/GetLineChart"
	InsightsService_GetBeforeAfterChart_FullMethodName = "/" + ServiceName + "/GetBeforeAfterChart"
	InsightsService_GetDashboard_FullMethodName        = "/" + ServiceName + "/GetDashboard"
	InsightsService_RenderChart_FullMethodName         = "/" + ServiceName + "/RenderChart"
)

// InsightsServiceServer is the server API for InsightsService.
type InsightsServiceServer interface {
	GetPieChart(context.Context, *ChartRequest) (*PieChartResponse, error)
	GetBarChart(context.Context, *ChartRequest) (*BarChartResponse, error)
	GetLineChart(context.Context, *ChartRequest) (*LineChartResponse, error)
	GetBeforeAfterChart(context.Context, *ChartRequest) (*BeforeAfterChartResponse, error)
	GetDashboard(context.Context, *DashboardRequest) (*DashboardResponse, error)
	RenderChart(context.Context, *ChartRequest) (*RenderChartResponse, error)
}

// UnimplementedInsightsServiceServer can be embedded for forward compatibility.
type UnimplementedInsightsServiceServer struct{}

func (UnimplementedInsightsServiceServer) GetPieChart(context.Context, *ChartRequest) (*PieChartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPieChart not implemented")
}

func (UnimplementedInsightsServiceServer) GetBarChart(context.Context, *ChartRequest) (*BarChartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBarChart not implemented")
}

func (UnimplementedInsightsServiceServer) GetLineChart(context.Context, *ChartRequest) (*LineChartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLineChart not implemented")
}

func (UnimplementedInsightsServiceServer) GetBeforeAfterChart(context.Context, *ChartRequest) (*BeforeAfterChartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBeforeAfterChart not implemented")
}

func (UnimplementedInsightsServiceServer) GetDashboard(context.Context, *DashboardRequest) (*DashboardResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDashboard not implemented")
}

func (UnimplementedInsightsServiceServer) RenderChart(context.Context, *ChartRequest) (*RenderChartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RenderChart not implemented")
}

func RegisterInsightsServiceServer(s grpc.ServiceRegistrar, srv InsightsServiceServer) {
	s.RegisterService(&InsightsService_ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(InsightsServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InsightsServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InsightsServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// InsightsService_ServiceDesc is the grpc.ServiceDesc for InsightsService.
var InsightsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InsightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetPieChart",
			Handler:    unaryHandler(InsightsService_GetPieChart_FullMethodName, InsightsServiceServer.GetPieChart),
		},
		{
			MethodName: "GetBarChart",
			Handler:    unaryHandler(InsightsService_GetBarChart_FullMethodName, InsightsServiceServer.GetBarChart),
		},
		{
			MethodName: "GetLineChart",
			Handler:    unaryHandler(InsightsService_GetLineChart_FullMethodName, InsightsServiceServer.GetLineChart),
		},
		{
			MethodName: "GetBeforeAfterChart",
			Handler:    unaryHandler(InsightsService_GetBeforeAfterChart_FullMethodName, InsightsServiceServer.GetBeforeAfterChart),
		},
		{
			MethodName: "GetDashboard",
			Handler:    unaryHandler(InsightsService_GetDashboard_FullMethodName, InsightsServiceServer.GetDashboard),
		},
		{
			MethodName: "RenderChart",
			Handler:    unaryHandler(InsightsService_RenderChart_FullMethodName, InsightsServiceServer.RenderChart),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "insights/v1/insights.proto",
}

// InsightsServiceClient is the client API for InsightsService.
type InsightsServiceClient interface {
	GetPieChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*PieChartResponse, error)
	GetBarChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*BarChartResponse, error)
	GetLineChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*LineChartResponse, error)
	GetBeforeAfterChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*BeforeAfterChartResponse, error)
	GetDashboard(ctx context.Context, in *DashboardRequest, opts ...grpc.CallOption) (*DashboardResponse, error)
	RenderChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*RenderChartResponse, error)
}

type insightsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInsightsServiceClient(cc grpc.ClientConnInterface) InsightsServiceClient {
	return &insightsServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *insightsServiceClient) GetPieChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*PieChartResponse, error) {
	return invoke[PieChartResponse](ctx, c.cc, InsightsService_GetPieChart_FullMethodName, in, opts)
}

func (c *insightsServiceClient) GetBarChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*BarChartResponse, error) {
	return invoke[BarChartResponse](ctx, c.cc, InsightsService_GetBarChart_FullMethodName, in, opts)
}

func (c *insightsServiceClient) GetLineChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*LineChartResponse, error) {
	return invoke[LineChartResponse](ctx, c.cc, InsightsService_GetLineChart_FullMethodName, in, opts)
}

func (c *insightsServiceClient) GetBeforeAfterChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*BeforeAfterChartResponse, error) {
	return invoke[BeforeAfterChartResponse](ctx, c.cc, InsightsService_GetBeforeAfterChart_FullMethodName, in, opts)
}

func (c *insightsServiceClient) GetDashboard(ctx context.Context, in *DashboardRequest, opts ...grpc.CallOption) (*DashboardResponse, error) {
	return invoke[DashboardResponse](ctx, c.cc, InsightsService_GetDashboard_FullMethodName, in, opts)
}

func (c *insightsServiceClient) RenderChart(ctx context.Context, in *ChartRequest, opts ...grpc.CallOption) (*RenderChartResponse, error) {
	return invoke[RenderChartResponse](ctx, c.cc, InsightsService_RenderChart_FullMethodName, in, opts)
}

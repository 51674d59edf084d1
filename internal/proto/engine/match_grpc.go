package engine

import (
	"context"

	"google.golang.org/grpc"
)

const (
	MatchService_BestMatch_FullMethodName   = "/engine.MatchService/BestMatch"
	MatchService_Rewind_FullMethodName      = "/engine.MatchService/Rewind"
	MatchService_React_FullMethodName       = "/engine.MatchService/React"
	MatchService_ListLikes_FullMethodName   = "/engine.MatchService/ListLikes"
	MatchService_CountLikes_FullMethodName  = "/engine.MatchService/CountLikes"
	MatchService_ListMatches_FullMethodName = "/engine.MatchService/ListMatches"
	MatchService_Report_FullMethodName      = "/engine.MatchService/Report"
)

// MatchServiceServer is the server API for MatchService.
type MatchServiceServer interface {
	BestMatch(context.Context, *BestMatchRequest) (*BestMatchResponse, error)
	Rewind(context.Context, *RewindRequest) (*RewindResponse, error)
	React(context.Context, *ReactRequest) (*ReactResponse, error)
	ListLikes(context.Context, *ListLikesRequest) (*ListLikesResponse, error)
	CountLikes(context.Context, *CountLikesRequest) (*CountLikesResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	Report(context.Context, *ReportRequest) (*ReportResponse, error)
}

// UnimplementedMatchServiceServer can be embedded for forward compatibility.
type UnimplementedMatchServiceServer struct{}

func (UnimplementedMatchServiceServer) BestMatch(context.Context, *BestMatchRequest) (*BestMatchResponse, error) {
	return nil, unimplemented("BestMatch")
}
func (UnimplementedMatchServiceServer) Rewind(context.Context, *RewindRequest) (*RewindResponse, error) {
	return nil, unimplemented("Rewind")
}
func (UnimplementedMatchServiceServer) React(context.Context, *ReactRequest) (*ReactResponse, error) {
	return nil, unimplemented("React")
}
func (UnimplementedMatchServiceServer) ListLikes(context.Context, *ListLikesRequest) (*ListLikesResponse, error) {
	return nil, unimplemented("ListLikes")
}
func (UnimplementedMatchServiceServer) CountLikes(context.Context, *CountLikesRequest) (*CountLikesResponse, error) {
	return nil, unimplemented("CountLikes")
}
func (UnimplementedMatchServiceServer) ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error) {
	return nil, unimplemented("ListMatches")
}
func (UnimplementedMatchServiceServer) Report(context.Context, *ReportRequest) (*ReportResponse, error) {
	return nil, unimplemented("Report")
}

var MatchService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "engine.MatchService",
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BestMatch", Handler: unaryHandler(MatchService_BestMatch_FullMethodName, MatchServiceServer.BestMatch)},
		{MethodName: "Rewind", Handler: unaryHandler(MatchService_Rewind_FullMethodName, MatchServiceServer.Rewind)},
		{MethodName: "React", Handler: unaryHandler(MatchService_React_FullMethodName, MatchServiceServer.React)},
		{MethodName: "ListLikes", Handler: unaryHandler(MatchService_ListLikes_FullMethodName, MatchServiceServer.ListLikes)},
		{MethodName: "CountLikes", Handler: unaryHandler(MatchService_CountLikes_FullMethodName, MatchServiceServer.CountLikes)},
		{MethodName: "ListMatches", Handler: unaryHandler(MatchService_ListMatches_FullMethodName, MatchServiceServer.ListMatches)},
		{MethodName: "Report", Handler: unaryHandler(MatchService_Report_FullMethodName, MatchServiceServer.Report)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "engine/match.json",
}

func RegisterMatchServiceServer(s grpc.ServiceRegistrar, srv MatchServiceServer) {
	s.RegisterService(&MatchService_ServiceDesc, srv)
}

// MatchServiceClient is the client API for MatchService.
type MatchServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchServiceClient(cc grpc.ClientConnInterface) *MatchServiceClient {
	return &MatchServiceClient{cc: cc}
}

func (c *MatchServiceClient) BestMatch(ctx context.Context, in *BestMatchRequest, opts ...grpc.CallOption) (*BestMatchResponse, error) {
	return invoke[BestMatchResponse](ctx, c.cc, MatchService_BestMatch_FullMethodName, in, opts)
}

func (c *MatchServiceClient) Rewind(ctx context.Context, in *RewindRequest, opts ...grpc.CallOption) (*RewindResponse, error) {
	return invoke[RewindResponse](ctx, c.cc, MatchService_Rewind_FullMethodName, in, opts)
}

func (c *MatchServiceClient) React(ctx context.Context, in *ReactRequest, opts ...grpc.CallOption) (*ReactResponse, error) {
	return invoke[ReactResponse](ctx, c.cc, MatchService_React_FullMethodName, in, opts)
}

func (c *MatchServiceClient) ListLikes(ctx context.Context, in *ListLikesRequest, opts ...grpc.CallOption) (*ListLikesResponse, error) {
	return invoke[ListLikesResponse](ctx, c.cc, MatchService_ListLikes_FullMethodName, in, opts)
}

func (c *MatchServiceClient) CountLikes(ctx context.Context, in *CountLikesRequest, opts ...grpc.CallOption) (*CountLikesResponse, error) {
	return invoke[CountLikesResponse](ctx, c.cc, MatchService_CountLikes_FullMethodName, in, opts)
}

func (c *MatchServiceClient) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, MatchService_ListMatches_FullMethodName, in, opts)
}

func (c *MatchServiceClient) Report(ctx context.Context, in *ReportRequest, opts ...grpc.CallOption) (*ReportResponse, error) {
	return invoke[ReportResponse](ctx, c.cc, MatchService_Report_FullMethodName, in, opts)
}

package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// debugServiceServer is the interface grpc.ServiceDesc binds against;
// *Server implements it. Named and shaped the way protoc-gen-go-grpc
// would generate it from a DebugService.GetStats rpc definition.
type debugServiceServer interface {
	GetStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func getStatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(debugServiceServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/dx.kernel.DebugService/GetStats",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(debugServiceServer).GetStats(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// debugServiceDesc describes dx.kernel.DebugService's single GetStats
// unary RPC. Built by hand instead of with protoc: structpb.Struct
// already satisfies proto.Message, so grpc's codec needs nothing a
// generated .pb.go file would otherwise supply here.
var debugServiceDesc = grpc.ServiceDesc{
	ServiceName: "dx.kernel.DebugService",
	HandlerType: (*debugServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStats",
			Handler:    getStatsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dx/kernel/debug.proto",
}

package pb

import (
	"context"

	"google.golang.org/grpc"
)

func runDetectionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(EncodedImage)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceRPCServer).RunDetection(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/RunDetection"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceRPCServer).RunDetection(ctx, req.(*EncodedImage))
	}
	return interceptor(ctx, req, info, handler)
}

func metadataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(MetadataRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceRPCServer).Metadata(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Metadata"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceRPCServer).Metadata(ctx, req.(*MetadataRequest))
	}
	return interceptor(ctx, req, info, handler)
}

package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = protoPackage + "." + serviceShort

// MediaServiceServer is the server API for the media service. Requests and
// responses are google.protobuf.Struct documents; see converters.go for their
// fields.
type MediaServiceServer interface {
	DownloadVideo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DownloadSubtitle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitVideo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitSubtitle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(MediaServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MediaServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MediaServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MediaServiceDesc describes the media service for grpc.Server.RegisterService.
var MediaServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MediaServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DownloadVideo", Handler: unaryHandler("DownloadVideo", MediaServiceServer.DownloadVideo)},
		{MethodName: "DownloadSubtitle", Handler: unaryHandler("DownloadSubtitle", MediaServiceServer.DownloadSubtitle)},
		{MethodName: "SubmitVideo", Handler: unaryHandler("SubmitVideo", MediaServiceServer.SubmitVideo)},
		{MethodName: "SubmitSubtitle", Handler: unaryHandler("SubmitSubtitle", MediaServiceServer.SubmitSubtitle)},
		{MethodName: "GetJob", Handler: unaryHandler("GetJob", MediaServiceServer.GetJob)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

// RegisterMediaServiceServer registers srv on s.
func RegisterMediaServiceServer(s grpc.ServiceRegistrar, srv MediaServiceServer) {
	s.RegisterService(&MediaServiceDesc, srv)
}

// MediaServiceClient calls the media service over a client connection.
type MediaServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMediaServiceClient creates a client on cc.
func NewMediaServiceClient(cc grpc.ClientConnInterface) *MediaServiceClient {
	return &MediaServiceClient{cc: cc}
}

func (c *MediaServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MediaServiceClient) DownloadVideo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "DownloadVideo", in, opts...)
}

func (c *MediaServiceClient) DownloadSubtitle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "DownloadSubtitle", in, opts...)
}

func (c *MediaServiceClient) SubmitVideo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SubmitVideo", in, opts...)
}

func (c *MediaServiceClient) SubmitSubtitle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SubmitSubtitle", in, opts...)
}

func (c *MediaServiceClient) GetJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetJob", in, opts...)
}

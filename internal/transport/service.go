package transport

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "cleanstage.v1.ArtifactStore"

const (
	MethodStartRun  = "StartRun"
	MethodFinishRun = "FinishRun"
	MethodResolve   = "Resolve"
	MethodLog       = "Log"
)

func FullMethod(m string) string { return "/" + ServiceName + "/" + m }

// StoreServer is the server side of the artifact store service.
type StoreServer interface {
	StartRun(context.Context, *StartRunRequest) (*Empty, error)
	FinishRun(context.Context, *FinishRunRequest) (*Empty, error)
	Resolve(context.Context, *ResolveRequest) (*ResolveReply, error)
	Log(context.Context, *LogRequest) (*LogReply, error)
}

var storeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StoreServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodStartRun, StoreServer.StartRun),
		unary(MethodFinishRun, StoreServer.FinishRun),
		unary(MethodResolve, StoreServer.Resolve),
		unary(MethodLog, StoreServer.Log),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cleanstage/v1/store",
}

func RegisterStoreServer(s grpc.ServiceRegistrar, srv StoreServer) {
	s.RegisterService(&storeServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(StoreServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StoreServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StoreServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

/*──────── client ───────*/

type StoreClient struct {
	cc grpc.ClientConnInterface
}

func NewStoreClient(cc grpc.ClientConnInterface) *StoreClient { return &StoreClient{cc: cc} }

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StoreClient) StartRun(ctx context.Context, in *StartRunRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodStartRun, in, opts)
}

func (c *StoreClient) FinishRun(ctx context.Context, in *FinishRunRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodFinishRun, in, opts)
}

func (c *StoreClient) Resolve(ctx context.Context, in *ResolveRequest, opts ...grpc.CallOption) (*ResolveReply, error) {
	return invoke[ResolveReply](ctx, c.cc, MethodResolve, in, opts)
}

func (c *StoreClient) Log(ctx context.Context, in *LogRequest, opts ...grpc.CallOption) (*LogReply, error) {
	return invoke[LogReply](ctx, c.cc, MethodLog, in, opts)
}

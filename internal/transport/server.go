package transport

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
}

// NewServer registers the store service and the standard health service.
func NewServer(impl StoreServer, opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	RegisterStoreServer(s.grpc, impl)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func StartServer(port int, impl StoreServer, opts ...grpc.ServerOption) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	s := NewServer(impl, opts...)
	s.lis = lis
	return s, nil
}

func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

func (s *Server) Serve() error {
	return s.grpc.Serve(s.lis)
}

func (s *Server) ServeListener(lis net.Listener) error {
	s.lis = lis
	return s.grpc.Serve(lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Dial opens a client connection to a store server. The connection is
// lazy; use CheckHealth to fail fast.
func Dial(target string, maxMsg int, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(CodecName),
			grpc.MaxCallRecvMsgSize(maxMsg),
			grpc.MaxCallSendMsgSize(maxMsg),
		),
	}
	return grpc.NewClient(target, append(base, opts...)...)
}

func CheckHealth(ctx context.Context, cc grpc.ClientConnInterface) error {
	// The health service speaks protobuf, not the store's JSON.
	resp, err := healthpb.NewHealthClient(cc).Check(ctx,
		&healthpb.HealthCheckRequest{Service: ServiceName},
		grpc.CallContentSubtype("proto"))
	if err != nil {
		return FromStatus(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("store service is %s", resp.GetStatus())
	}
	return nil
}

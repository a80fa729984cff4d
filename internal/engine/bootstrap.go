package engine

import (
	"fmt"

	"google.golang.org/grpc"

	"cleanstage/internal/logging"
	"cleanstage/internal/telemetry"
	"cleanstage/internal/transport"
	"cleanstage/store"
)

// Bootstrap opens the backing store and starts listening. Nothing is served
// until Run.
func Bootstrap(cfg Config) (*Engine, error) {
	// 1. backing store
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	// 2. transport server
	m := telemetry.NewServerMetrics()
	srv, err := transport.StartServer(cfg.GRPCPort, transport.NewStoreService(st),
		grpc.ChainUnaryInterceptor(m.UnaryInterceptor()),
		grpc.MaxRecvMsgSize(cfg.Store.MaxMsg),
		grpc.MaxSendMsgSize(cfg.Store.MaxMsg),
	)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("transport: %w", err)
	}
	logging.L().Info("store server listening", "addr", srv.Addr().String(),
		"root", cfg.Store.Root, "project", cfg.Store.Project)

	// 3. metrics
	metrics := telemetry.Expose(cfg.MetricsPort, m.Gatherer())
	logging.L().Info("metrics listening", "port", cfg.MetricsPort)

	return &Engine{
		transport: srv,
		store:     st,
		metrics:   metrics,
	}, nil
}

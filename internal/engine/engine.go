// Package engine hosts a local artifact store over gRPC for `cleanstage serve`.
package engine

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cleanstage/internal/transport"
	"cleanstage/store"
)

type Config struct {
	GRPCPort    int
	MetricsPort int
	Store       store.Config
}

type Engine struct {
	transport *transport.Server
	store     store.Adapter
	metrics   *http.Server
}

// Run serves until ctx is cancelled, then drains in-flight calls.
func (e *Engine) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		e.transport.Stop()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.metrics.Shutdown(shutdown)
	}()

	err := e.transport.Serve()
	return errors.Join(err, e.store.Close())
}

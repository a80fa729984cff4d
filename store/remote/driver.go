// Package remote is a store driver that talks to a `cleanstage serve`
// instance over gRPC. Fetched files are cached on local disk by digest.
package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/grpc"

	"cleanstage/internal/logging"
	"cleanstage/internal/transport"
	"cleanstage/store"
)

type Driver struct {
	cfg    store.Config
	conn   *grpc.ClientConn
	client *transport.StoreClient

	// dialOpts are appended to the defaults; tests use them to dial
	// in-memory listeners.
	dialOpts []grpc.DialOption
}

func (d *Driver) Configure(cfg store.Config) error {
	cfg.ApplyDefaults()
	if cfg.Address == "" {
		return errors.New("remote-store: address is required")
	}
	if cfg.Cache == "" {
		cfg.Cache = filepath.Join(os.TempDir(), "cleanstage-cache")
	}
	conn, err := transport.Dial(cfg.Address, cfg.MaxMsg, d.dialOpts...)
	if err != nil {
		return fmt.Errorf("remote-store: dial %s: %w", cfg.Address, err)
	}
	d.cfg, d.conn = cfg, conn
	d.client = transport.NewStoreClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := transport.CheckHealth(ctx, conn); err != nil {
		_ = conn.Close()
		return fmt.Errorf("remote-store: %s: %w", cfg.Address, err)
	}
	return nil
}

func (d *Driver) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.cfg.Timeout)
}

func (d *Driver) StartRun(ctx context.Context, run store.Run) error {
	ctx, cancel := d.call(ctx)
	defer cancel()
	_, err := d.client.StartRun(ctx, &transport.StartRunRequest{Run: run})
	return transport.FromStatus(err)
}

func (d *Driver) FinishRun(ctx context.Context, runID string, runErr error) error {
	ctx, cancel := d.call(ctx)
	defer cancel()
	req := &transport.FinishRunRequest{RunID: runID}
	if runErr != nil {
		req.Error = runErr.Error()
	}
	_, err := d.client.FinishRun(ctx, req)
	return transport.FromStatus(err)
}

func (d *Driver) Use(ctx context.Context, runID string, ref store.Ref) (store.Resolved, error) {
	if ref.Project != "" && ref.Project != d.cfg.Project {
		return store.Resolved{}, fmt.Errorf("%w: %s (store project is %q)", store.ErrNotFound, ref, d.cfg.Project)
	}
	ref.Project = ""
	ctx, cancel := d.call(ctx)
	defer cancel()
	reply, err := d.client.Resolve(ctx, &transport.ResolveRequest{RunID: runID, Ref: ref.String()})
	if err != nil {
		return store.Resolved{}, transport.FromStatus(err)
	}
	v := reply.Version
	if !store.ValidName(v.Name) || !store.ValidName(v.Version) || !store.ValidName(v.File) {
		return store.Resolved{}, fmt.Errorf("remote-store: server returned invalid version %+v", v)
	}

	dir := filepath.Join(d.cfg.Cache, d.cfg.Project, v.Name, v.Version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store.Resolved{}, fmt.Errorf("remote-store: cache: %w", err)
	}
	path := filepath.Join(dir, v.File)
	if err := os.WriteFile(path, reply.Content, 0o644); err != nil {
		return store.Resolved{}, fmt.Errorf("remote-store: cache: %w", err)
	}
	logging.L().Debug("remote-store: cached artifact", "ref", v.Ref(), "path", path)
	return store.Resolved{Path: path, Version: v}, nil
}

func (d *Driver) Log(ctx context.Context, runID string, a store.Artifact) (store.Version, error) {
	content, err := os.ReadFile(a.Path) //#nosec G304
	if err != nil {
		return store.Version{}, fmt.Errorf("remote-store: %w", err)
	}
	ctx, cancel := d.call(ctx)
	defer cancel()
	reply, err := d.client.Log(ctx, &transport.LogRequest{
		RunID:       runID,
		Name:        a.Name,
		Type:        a.Type,
		Description: a.Description,
		FileName:    filepath.Base(a.Path),
		Metadata:    a.Metadata,
		Content:     content,
	})
	if err != nil {
		return store.Version{}, transport.FromStatus(err)
	}
	return reply.Version, nil
}

func (d *Driver) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

func init() {
	store.Register("remote", func() store.Adapter { return &Driver{} })
}

package remote

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"cleanstage/internal/transport"
	"cleanstage/store"
	"cleanstage/store/local"
)

func serve(t *testing.T) (*Driver, *local.Driver) {
	t.Helper()
	backing := &local.Driver{}
	if err := backing.Configure(store.Config{Root: t.TempDir(), Project: "nyc_airbnb"}); err != nil {
		t.Fatalf("local Configure: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := transport.NewServer(transport.NewStoreService(backing))
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(srv.Stop)

	d := &Driver{dialOpts: []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
	}}
	if err := d.Configure(store.Config{Address: "passthrough:///bufnet", Project: "nyc_airbnb", Cache: t.TempDir()}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, backing
}

func TestRemote_RoundTrip(t *testing.T) {
	ctx := context.Background()
	d, backing := serve(t)

	if err := d.StartRun(ctx, store.Run{ID: "run-1", JobType: "basic_cleaning"}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	src := filepath.Join(t.TempDir(), "clean_sample.csv")
	if err := os.WriteFile(src, []byte("price\n42\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, err := d.Log(ctx, "run-1", store.Artifact{Name: "clean_sample.csv", Type: "clean_sample", Description: "d", Path: src})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if v.Ref() != "clean_sample.csv:v0" || v.File != "clean_sample.csv" {
		t.Fatalf("unexpected version %+v", v)
	}

	res, err := d.Use(ctx, "run-1", store.Ref{Project: "nyc_airbnb", Name: "clean_sample.csv", Version: "latest"})
	if err != nil {
		t.Fatalf("Use: %v", err)
	}
	raw, err := os.ReadFile(res.Path)
	if err != nil || string(raw) != "price\n42\n" {
		t.Fatalf("cached file %q, %v", raw, err)
	}
	if err := d.FinishRun(ctx, "run-1", nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	rec, err := backing.RunRecord("run-1")
	if err != nil {
		t.Fatalf("RunRecord: %v", err)
	}
	if rec.State != local.StateFinished || len(rec.Used) != 1 || len(rec.Produced) != 1 {
		t.Fatalf("lineage not recorded server side: %+v", rec)
	}
}

func TestRemote_ErrorsKeepTheirKind(t *testing.T) {
	ctx := context.Background()
	d, _ := serve(t)

	_, err := d.Use(ctx, "", store.Ref{Name: "missing.csv", Version: "latest"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	_, err = d.Use(ctx, "", store.Ref{Project: "elsewhere", Name: "x.csv", Version: "latest"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign project, got %v", err)
	}
	if err := d.FinishRun(ctx, "ghost", nil); !errors.Is(err, store.ErrUnknownRun) {
		t.Fatalf("want ErrUnknownRun, got %v", err)
	}

	src := filepath.Join(t.TempDir(), "x.csv")
	_ = os.WriteFile(src, []byte("1\n"), 0o644)
	if _, err := d.Log(ctx, "", store.Artifact{Name: "x.csv", Type: "raw", Path: src}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	_ = os.WriteFile(src, []byte("2\n"), 0o644)
	if _, err := d.Log(ctx, "", store.Artifact{Name: "x.csv", Type: "clean", Path: src}); !errors.Is(err, store.ErrTypeClash) {
		t.Fatalf("want ErrTypeClash, got %v", err)
	}
}

func TestConfigure_RequiresAddress(t *testing.T) {
	if err := (&Driver{}).Configure(store.Config{}); err == nil {
		t.Fatal("expected error without address")
	}
}

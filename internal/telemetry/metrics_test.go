package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptor_CountsByCode(t *testing.T) {
	m := NewServerMetrics()
	ic := m.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/cleanstage.v1.ArtifactStore/Resolve"}

	ok := func(context.Context, any) (any, error) { return "ok", nil }
	missing := func(context.Context, any) (any, error) { return nil, status.Error(codes.NotFound, "gone") }
	for _, h := range []grpc.UnaryHandler{ok, ok, missing} {
		_, _ = ic(context.Background(), nil, info, h)
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues(info.FullMethod, "OK")); got != 2 {
		t.Fatalf("OK count: %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues(info.FullMethod, "NotFound")); got != 1 {
		t.Fatalf("NotFound count: %v", got)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RowsRead.Add(10)
	m.RowsDropped.WithLabelValues("price_range").Add(4)

	path := filepath.Join(t.TempDir(), "cleanstage.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{
		"cleanstage_rows_read_total 10",
		`cleanstage_rows_dropped_total{stage="price_range"} 4`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("%q missing from:\n%s", want, raw)
		}
	}
}

package stdout

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cleanstage/sink"
)

func TestDriver_WritesOneJSONLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	d := &driver{out: &buf}
	if err := d.Configure(Config{}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, k := range []sink.Kind{sink.KindRunStarted, sink.KindRunFinished} {
		if err := d.Push(&sink.Event{Kind: k, RunID: "r1", At: at, Attrs: map[string]any{"rows_out": 3}}); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d: %q", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if ev["kind"] != "run_finished" || ev["at"] != "2024-03-01T12:00:00Z" {
		t.Fatalf("unexpected event %v", ev)
	}
}

func TestDriver_RejectsUnsupportedAttr(t *testing.T) {
	var buf bytes.Buffer
	d := &driver{out: &buf}
	_ = d.Configure(Config{})
	err := d.Push(&sink.Event{Kind: sink.KindRunStarted, Attrs: map[string]any{"bad": struct{}{}}})
	if err == nil {
		t.Fatal("expected error for an attr protobuf cannot represent")
	}
}

func TestRegistered(t *testing.T) {
	a, err := sink.NewAdapter("stdout")
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if _, ok := a.(*driver); !ok {
		t.Fatalf("want *driver, got %T", a)
	}
	if _, err := sink.NewAdapter("carrier-pigeon"); err == nil {
		t.Fatal("expected error for unknown sink")
	}
}

package stdout

import (
	"fmt"
	"io"
	"os"
	"sync"

	"cleanstage/sink"
)

type Config struct {
	Pretty bool `koanf:"pretty"` // multi-line JSON
}

// driver writes one JSON document per event.
type driver struct {
	cfg Config
	out io.Writer

	mu sync.Mutex
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	d.cfg = c
	if d.out == nil {
		d.out = os.Stdout
	}
	return nil
}

func (d *driver) Push(e *sink.Event) error {
	b, err := e.Marshal(d.cfg.Pretty)
	if err != nil {
		return fmt.Errorf("stdout-sink: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = fmt.Fprintf(d.out, "%s\n", b)
	return err
}

func (d *driver) Close() error { return nil }

func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}

package store

import "fmt"

// Factory builds an Adapter (local, remote, …).
type Factory func() Adapter

var registry = map[string]Factory{}

// Register is called from each driver's init().
func Register(name string, f Factory) {
	registry[name] = f
}

func NewAdapter(name string) (Adapter, error) {
	if f, ok := registry[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("store: unsupported driver %q", name)
}

// Open builds and configures the driver named by cfg.Driver.
func Open(cfg Config) (Adapter, error) {
	cfg.ApplyDefaults()
	a, err := NewAdapter(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if err := a.Configure(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

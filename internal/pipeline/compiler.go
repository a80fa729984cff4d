package pipeline

import (
	"errors"
	"fmt"

	"cleanstage/internal/spec"
	"cleanstage/internal/transform"
	"cleanstage/sink"
	"cleanstage/store"
)

// Compile opens the configured store and sinks and builds the cleaning
// chain. Store drivers must already be registered by the caller.
func Compile(cfg spec.File) (*Runner, error) {
	job := cfg.Job
	if job.MinPrice == nil || job.MaxPrice == nil {
		return nil, ConfigError(errors.New("min_price and max_price are required"))
	}
	stages, err := transform.Chain(transform.Params{MinPrice: *job.MinPrice, MaxPrice: *job.MaxPrice})
	if err != nil {
		return nil, ConfigError(err)
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fail(ErrResolution, err, "open %s store", cfg.Store.Driver)
	}
	r := NewRunner(st, stages, job)
	r.SetMetricsExport(cfg.Metrics)

	for _, name := range cfg.Lineage.Sinks {
		s, err := sink.NewAdapter(name)
		if err != nil {
			_ = r.Close()
			return nil, ConfigError(err)
		}
		switch name {
		case "stdout":
			err = s.Configure(cfg.Lineage.Stdout)
		case "kafka":
			err = s.Configure(cfg.Lineage.Kafka)
		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			_ = r.Close()
			return nil, ConfigError(fmt.Errorf("sink %s: %w", name, err))
		}
		r.AddSink(s)
	}
	return r, nil
}

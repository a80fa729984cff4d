package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"cleanstage/internal/dataset"
	"cleanstage/internal/logging"
	"cleanstage/internal/spec"
	"cleanstage/internal/telemetry"
	"cleanstage/internal/transform"
	"cleanstage/sink"
	"cleanstage/store"
)

const JobType = "basic_cleaning"

// Result describes a successful run.
type Result struct {
	RunID  string
	Input  store.Version
	Output store.Version
	Rows   int
	Stats  []transform.Stats
}

// Runner executes one fetch, clean, publish cycle against a store.
type Runner struct {
	store   store.Adapter
	stages  []transform.Stage
	sinks   []sink.Adapter
	metrics *telemetry.Metrics

	job    spec.Job
	export spec.Metrics

	newID func() string
	now   func() time.Time
}

func NewRunner(st store.Adapter, stages []transform.Stage, job spec.Job) *Runner {
	return &Runner{
		store:   st,
		stages:  stages,
		metrics: telemetry.NewMetrics(),
		job:     job,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (r *Runner) AddSink(s sink.Adapter)          { r.sinks = append(r.sinks, s) }
func (r *Runner) SetMetricsExport(m spec.Metrics) { r.export = m }
func (r *Runner) Metrics() *telemetry.Metrics     { return r.metrics }

// Run performs the three phases in order. Any returned error is an *Error
// whose Kind is one of ErrResolution, ErrParse or ErrPublish.
func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	res.RunID = r.newID()
	log := logging.L().With("run_id", res.RunID)
	start := r.now()

	if err := r.store.StartRun(ctx, store.Run{
		ID: res.RunID, JobType: JobType, Config: r.job.Params(), StartedAt: start.UTC(),
	}); err != nil {
		return res, fail(ErrResolution, err, "start run")
	}
	r.emit(log, res.RunID, sink.KindRunStarted, map[string]any{"input_artifact": r.job.InputArtifact})

	defer func() {
		r.metrics.Duration.Set(r.now().Sub(start).Seconds())
		attrs := map[string]any{"status": "finished"}
		if err != nil {
			attrs = map[string]any{"status": "failed", "error": err.Error()}
		} else {
			r.metrics.LastSuccess.SetToCurrentTime()
		}
		if ferr := r.store.FinishRun(context.WithoutCancel(ctx), res.RunID, err); ferr != nil {
			log.Warn("could not close run record", "err", ferr)
		}
		r.emit(log, res.RunID, sink.KindRunFinished, attrs)
		r.exportMetrics(ctx, log)
	}()

	// fetch
	ref, err := store.ParseRef(r.job.InputArtifact)
	if err != nil {
		return res, fail(ErrResolution, err, "input %q", r.job.InputArtifact)
	}
	log.Info("fetching artifact", "ref", ref.String())
	in, err := r.store.Use(ctx, res.RunID, ref)
	if err != nil {
		return res, fail(ErrResolution, err, "input %q", r.job.InputArtifact)
	}
	res.Input = in.Version
	r.emit(log, res.RunID, sink.KindArtifactUsed, versionAttrs(in.Version))

	ds, err := dataset.ReadFile(in.Path)
	if err != nil {
		return res, fail(ErrParse, err, "%s", in.Version.Ref())
	}
	log.Info("loaded dataset", "rows", ds.Len(), "size", humanize.Bytes(uint64(in.Version.Size)))
	r.metrics.RowsRead.Add(float64(ds.Len()))

	// transform
	out, stats := transform.Run(ds, r.stages)
	res.Stats = stats
	for _, st := range stats {
		r.metrics.RowsDropped.WithLabelValues(st.Stage).Add(float64(st.Dropped()))
		log.Info("stage applied", "stage", st.Stage, "in", st.In, "out", st.Out)
		if st.Out == 0 && st.In > 0 {
			log.Warn("stage left no rows", "stage", st.Stage, "in", st.In)
		}
		if st.Coerced > 0 {
			r.metrics.DatesCoerced.Add(float64(st.Coerced))
			log.Warn("unparseable dates set to null", "stage", st.Stage, "count", st.Coerced)
		}
	}
	res.Rows = out.Len()

	// publish
	dir, cleanup, err := r.workDir(res.RunID)
	if err != nil {
		return res, fail(ErrPublish, err, "working directory")
	}
	defer cleanup()
	path := filepath.Join(dir, r.job.OutputFile)
	if err := dataset.WriteFile(path, out); err != nil {
		return res, fail(ErrPublish, err, "write %s", path)
	}
	v, err := r.store.Log(ctx, res.RunID, store.Artifact{
		Name:        r.job.OutputArtifact,
		Type:        r.job.OutputType,
		Description: r.job.OutputDescription,
		Path:        path,
		Metadata: map[string]string{
			"rows":   strconv.Itoa(out.Len()),
			"source": in.Version.Ref(),
		},
	})
	if err != nil {
		return res, fail(ErrPublish, err, "register %s", r.job.OutputArtifact)
	}
	res.Output = v
	r.metrics.RowsWritten.Add(float64(out.Len()))
	r.emit(log, res.RunID, sink.KindArtifactProduced, versionAttrs(v))
	log.Info("published artifact", "ref", v.Ref(), "rows", out.Len(), "size", humanize.Bytes(uint64(v.Size)))
	return res, nil
}

// workDir returns the configured directory, or a temporary one that cleanup
// removes once the store holds its own copy of the output.
func (r *Runner) workDir(runID string) (string, func(), error) {
	if r.job.WorkDir != "" {
		if err := os.MkdirAll(r.job.WorkDir, 0o755); err != nil {
			return "", nil, err
		}
		return r.job.WorkDir, func() {}, nil
	}
	dir, err := os.MkdirTemp("", "cleanstage-"+runID+"-")
	if err != nil {
		return "", nil, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func (r *Runner) emit(log *slog.Logger, runID string, kind sink.Kind, attrs map[string]any) {
	ev := &sink.Event{Kind: kind, RunID: runID, JobType: JobType, At: r.now(), Attrs: attrs}
	for _, s := range r.sinks {
		if err := s.Push(ev); err != nil {
			log.Warn("lineage sink failed", "kind", kind, "err", err)
		}
	}
}

func (r *Runner) exportMetrics(ctx context.Context, log *slog.Logger) {
	if r.export.Textfile != "" {
		if err := r.metrics.WriteTextfile(r.export.Textfile); err != nil {
			log.Warn("metrics textfile not written", "path", r.export.Textfile, "err", err)
		}
	}
	if r.export.PushGateway != "" {
		if err := r.metrics.Push(ctx, r.export.PushGateway, r.export.Job); err != nil {
			log.Warn("metrics push failed", "url", r.export.PushGateway, "err", err)
		}
	}
}

func versionAttrs(v store.Version) map[string]any {
	return map[string]any{
		"artifact": v.Ref(),
		"type":     v.Type,
		"digest":   v.Digest,
		"size":     v.Size,
	}
}

// Close releases the store and every sink.
func (r *Runner) Close() error {
	var errs []error
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}

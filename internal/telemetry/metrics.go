package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"cleanstage/internal/logging"
)

const namespace = "cleanstage"

// Metrics for one cleaning run. Each run owns its registry.
type Metrics struct {
	reg *prometheus.Registry

	RowsRead     prometheus.Counter
	RowsDropped  *prometheus.CounterVec
	RowsWritten  prometheus.Counter
	DatesCoerced prometheus.Counter
	Duration     prometheus.Gauge
	LastSuccess  prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_read_total",
			Help: "Rows loaded from the input artifact.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_dropped_total",
			Help: "Rows removed, by cleaning stage.",
		}, []string{"stage"}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_written_total",
			Help: "Rows in the published artifact.",
		}),
		DatesCoerced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "dates_coerced_total",
			Help: "last_review values that did not parse and were set to null.",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished.",
		}),
	}
	m.reg.MustRegister(m.RowsRead, m.RowsDropped, m.RowsWritten, m.DatesCoerced, m.Duration, m.LastSuccess)
	return m
}

func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }

// WriteTextfile writes the registry for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

// Push replaces this job's series on a Pushgateway.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(m.reg).PushContext(ctx)
}

/*──────── store server ───────*/

type ServerMetrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewServerMetrics() *ServerMetrics {
	m := &ServerMetrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "requests_total",
			Help: "Store RPCs by method and status code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "request_seconds",
			Help:    "Store RPC latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	m.reg.MustRegister(m.requests, m.latency,
		prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return m
}

func (m *ServerMetrics) Gatherer() prometheus.Gatherer { return m.reg }

func (m *ServerMetrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.latency.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// Expose serves /metrics for g on port in the background.
func Expose(port int, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Error("metrics listener stopped", "port", port, "err", err)
		}
	}()
	return srv
}

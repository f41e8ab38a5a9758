package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/everstacklabs/scout/internal/adapter"
)

const namespace = "scout"

// Recorder collects catalog and engine metrics on a private registry.
// It satisfies cache.Observer and consider.Observer.
type Recorder struct {
	registry *prometheus.Registry

	upstreamFetches  *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		upstreamFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_fetches_total",
				Help:      "Upstream catalog fetches by source and status.",
			},
			[]string{"source", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_duration_seconds",
				Help:      "Duration of upstream catalog fetches.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Catalog snapshot lookups by result.",
			},
			[]string{"result"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Engine operations by name and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		operationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of engine operations, including any upstream fetch.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),
	}
	r.registry.MustRegister(r.upstreamFetches, r.upstreamDuration, r.cacheLookups, r.operations, r.operationLatency)
	return r
}

// CacheLookup counts a snapshot hit or miss.
func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// UpstreamFetch records one upstream fetch attempt.
func (r *Recorder) UpstreamFetch(source string, elapsed time.Duration, err error) {
	r.upstreamFetches.WithLabelValues(source, fetchStatus(err)).Inc()
	r.upstreamDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// Operation records one finished engine operation.
func (r *Recorder) Operation(name string, elapsed time.Duration, err error) {
	r.operations.WithLabelValues(name, outcome(err)).Inc()
	r.operationLatency.WithLabelValues(name).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// fetchStatus labels a fetch by HTTP status, "transport" for failures
// without one, or "ok".
func fetchStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var ue *adapter.UpstreamError
	if errors.As(err, &ue) && ue.StatusCode != 0 {
		return strconv.Itoa(ue.StatusCode)
	}
	return "transport"
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, adapter.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "error"
	}
}

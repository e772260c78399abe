package instrument

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/gated/pkg/resource"
)

// Load outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeGated    = "gated"
	OutcomeCanceled = "canceled"
)

// MetricsConfig configures the Prometheus middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "gated").
	Namespace string

	// Subsystem is the metrics subsystem (default: "resource").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for load duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "gated",
		Subsystem: "resource",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the load collectors for one registry.
type Metrics struct {
	loadsTotal   *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	inflight     prometheus.Gauge
}

// Collectors are registered once per registry so that every resource can
// call Prometheus with the same options.
var (
	metricsMu    sync.Mutex
	metricsByReg = map[prometheus.Registerer]*Metrics{}
)

// NewMetrics creates and registers the load collectors. It panics if they
// are already registered with the configured registry; use Prometheus to
// share them.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return newMetrics(config)
}

func newMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		loadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loads_total",
			Help:        "Total number of resource loads by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"resource", "outcome"}),

		loadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "load_duration_seconds",
			Help:        "Resource load duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"resource"}),

		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loads_inflight",
			Help:        "Number of resource loads in flight",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus returns middleware that records every load attempt.
//
// Metrics collected (with the default namespace and subsystem):
//   - gated_resource_loads_total: Counter of loads by resource and outcome
//   - gated_resource_load_duration_seconds: Histogram of load duration
//   - gated_resource_loads_inflight: Gauge of loads in flight
//
// Collectors are created on the first call for a registry and reused after
// that; options other than the registry only apply to that first call.
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) resource.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	metricsMu.Lock()
	m, ok := metricsByReg[config.Registry]
	if !ok {
		m = newMetrics(config)
		metricsByReg[config.Registry] = m
	}
	metricsMu.Unlock()

	return m.Middleware()
}

// Middleware returns middleware that records into m.
func (m *Metrics) Middleware() resource.Middleware {
	return func(ctx context.Context, info *resource.LoadInfo, next func(context.Context) error) error {
		m.inflight.Inc()
		start := time.Now()

		err := next(ctx)

		m.inflight.Dec()
		m.loadDuration.WithLabelValues(info.Resource).Observe(time.Since(start).Seconds())
		m.loadsTotal.WithLabelValues(info.Resource, Outcome(ctx, info, err)).Inc()
		return err
	}
}

// Outcome classifies a finished load attempt.
func Outcome(ctx context.Context, info *resource.LoadInfo, err error) string {
	switch {
	case info != nil && info.Gated:
		return OutcomeGated
	case ctx.Err() != nil, stderrors.Is(err, context.Canceled):
		return OutcomeCanceled
	case err != nil:
		return OutcomeError
	default:
		return OutcomeOK
	}
}

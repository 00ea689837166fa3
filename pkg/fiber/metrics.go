package fiber

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commit outcomes recorded in the commits_total metric.
const (
	statusOK      = "ok"
	statusError   = "error"
	statusAborted = "aborted"
	statusDropped = "dropped"
)

// MetricsConfig configures the Prometheus metrics of a scheduler.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "fibre").
	Namespace string

	// Subsystem is the metrics subsystem (default: "scheduler").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures scheduler metrics.
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
		Namespace: "fibre",
		Subsystem: "scheduler",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors of one or more schedulers. A nil
// *Metrics records nothing.
type Metrics struct {
	fibersCreated     prometheus.Counter
	fibersSuperseded  prometheus.Counter
	commitsTotal      *prometheus.CounterVec
	commitDuration    prometheus.Histogram
	renderErrors      prometheus.Counter
	activeTransitions prometheus.Gauge
}

// NewMetrics registers the scheduler collectors. Register once per registry
// and share the result between schedulers.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		fibersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fibers_created_total",
			Help:        "Total number of fibers created",
			ConstLabels: config.ConstLabels,
		}),
		fibersSuperseded: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fibers_superseded_total",
			Help:        "Total number of rendered fibers replaced by a newer render",
			ConstLabels: config.ConstLabels,
		}),
		commitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of root fibers settled, by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Time spent applying a commit to the document",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		renderErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total number of failed renders",
			ConstLabels: config.ConstLabels,
		}),
		activeTransitions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_transitions",
			Help:        "Number of nodes currently entering or leaving",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) fiberCreated() {
	if m != nil {
		m.fibersCreated.Inc()
	}
}

func (m *Metrics) fiberSuperseded() {
	if m != nil {
		m.fibersSuperseded.Inc()
	}
}

func (m *Metrics) commitDone(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(status).Inc()
	if status == statusOK || status == statusError {
		m.commitDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) renderFailed() {
	if m != nil {
		m.renderErrors.Inc()
	}
}

func (m *Metrics) transitionsChanged(delta int) {
	if m != nil {
		m.activeTransitions.Add(float64(delta))
	}
}

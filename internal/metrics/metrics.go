// Package metrics exports Prometheus metrics for the variable store, the
// binding layer and the widget host.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/store"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "lessonvars").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// FanoutBuckets are the buckets of the fan-out size histogram.
	FanoutBuckets []float64

	// Registry is where metrics are registered. Default: a fresh
	// prometheus.Registry, so several collectors can coexist in one process.
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithFanoutBuckets sets the fan-out histogram buckets.
func WithFanoutBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.FanoutBuckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:     "lessonvars",
		FanoutBuckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	}
}

// Collector records store and host activity. It implements store.Observer.
type Collector struct {
	registry prometheus.Registerer

	sets          *prometheus.CounterVec
	notifications *prometheus.CounterVec
	subscriptions *prometheus.CounterVec
	releases      *prometheus.CounterVec
	panics        *prometheus.CounterVec
	mismatches    *prometheus.CounterVec
	seeded        prometheus.Counter
	stormTrips    prometheus.Counter
	dropped       prometheus.Counter
	active        prometheus.Gauge
	connections   prometheus.Gauge
	fanout        prometheus.Histogram
}

var _ store.Observer = (*Collector)(nil)

// New creates a collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(config.Registry)

	counterVec := func(name, help string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, []string{"variable"})
	}

	return &Collector{
		registry: config.Registry,

		sets:          counterVec("sets_total", "Total number of accepted variable writes"),
		notifications: counterVec("notifications_total", "Total number of subscriber callbacks run"),
		subscriptions: counterVec("subscriptions_total", "Total number of subscriptions created"),
		releases:      counterVec("releases_total", "Total number of subscriptions released"),
		panics:        counterVec("callback_panics_total", "Total number of subscriber callbacks that panicked"),
		mismatches:    counterVec("kind_mismatches_total", "Total number of writes rejected for a kind mismatch"),

		seeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "seeded_total",
			Help:        "Total number of variables seeded from declarations",
			ConstLabels: config.ConstLabels,
		}),

		stormTrips: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "storm_trips_total",
			Help:        "Total number of times the notification storm budget ran out",
			ConstLabels: config.ConstLabels,
		}),

		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "dropped_notifications_total",
			Help:        "Total number of notifications dropped by storm trips",
			ConstLabels: config.ConstLabels,
		}),

		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "active_subscriptions",
			Help:        "Number of live subscriptions",
			ConstLabels: config.ConstLabels,
		}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "ws_connections",
			Help:        "Number of open WebSocket connections",
			ConstLabels: config.ConstLabels,
		}),

		fanout: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "fanout_size",
			Help:        "Number of subscribers notified per write",
			ConstLabels: config.ConstLabels,
			Buckets:     config.FanoutBuckets,
		}),
	}
}

// Handler serves the collector's metrics. If the registry is not a
// prometheus.Gatherer, the default gatherer is served instead.
func (c *Collector) Handler() http.Handler {
	if g, ok := c.registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// Initialized implements store.Observer.
func (c *Collector) Initialized(seeded int) {
	c.seeded.Add(float64(seeded))
}

// Set implements store.Observer.
func (c *Collector) Set(name string) {
	c.sets.WithLabelValues(name).Inc()
}

// Notified implements store.Observer.
func (c *Collector) Notified(name string, n int) {
	c.notifications.WithLabelValues(name).Add(float64(n))
	c.fanout.Observe(float64(n))
}

// Subscribed implements store.Observer.
func (c *Collector) Subscribed(name string) {
	c.subscriptions.WithLabelValues(name).Inc()
	c.active.Inc()
}

// Released implements store.Observer.
func (c *Collector) Released(name string) {
	c.releases.WithLabelValues(name).Inc()
	c.active.Dec()
}

// CallbackPanicked implements store.Observer.
func (c *Collector) CallbackPanicked(name string) {
	c.panics.WithLabelValues(name).Inc()
}

// StormTripped implements store.Observer.
func (c *Collector) StormTripped(dropped int) {
	c.stormTrips.Inc()
	c.dropped.Add(float64(dropped))
}

// KindMismatch counts a rejected write. Its signature matches
// binding.MismatchHook.
func (c *Collector) KindMismatch(name string, _ registry.Kind, _ value.Kind) {
	c.mismatches.WithLabelValues(name).Inc()
}

// ConnectionOpened records a new WebSocket connection.
func (c *Collector) ConnectionOpened() {
	c.connections.Inc()
}

// ConnectionClosed records a closed WebSocket connection.
func (c *Collector) ConnectionClosed() {
	c.connections.Dec()
}

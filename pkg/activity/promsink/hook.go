// Package promsink exposes fitter activity as Prometheus metrics.
package promsink

import (
	"context"
	"math"

	"github.com/goliatone/go-fitty/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the Prometheus activity hook.
type Config struct {
	// Namespace is the metrics namespace (default: "fitty").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for post-fit chi-square.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus activity hook.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the chi-square histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
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
		Namespace: "fitty",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Hook counts activity events by verb and object type and records the
// chi-square of every fit attempt.
type Hook struct {
	eventsTotal    *prometheus.CounterVec
	chiSquare      *prometheus.HistogramVec
	improvement    prometheus.Histogram
	entriesTouched *prometheus.CounterVec
}

// New registers the hook's collectors and returns it.
func New(opts ...Option) *Hook {
	config := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&config)
		}
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if len(config.Buckets) == 0 {
		config.Buckets = defaultConfig().Buckets
	}
	factory := promauto.With(config.Registry)

	return &Hook{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of fitter activity events",
			ConstLabels: config.ConstLabels,
		}, []string{"verb", "object_type"}),

		chiSquare: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fit_chi_square",
			Help:        "Chi-square after each fit attempt",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"verb"}),

		improvement: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fit_chi_square_ratio",
			Help:        "Post-fit over pre-fit chi-square for committed fits",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.LinearBuckets(0.1, 0.1, 10),
		}),

		entriesTouched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "file_entries_total",
			Help:        "Total number of entries read or written through parameter files",
			ConstLabels: config.ConstLabels,
		}, []string{"verb"}),
	}
}

// Notify updates the collectors for one event.
func (h *Hook) Notify(_ context.Context, event activity.Event) error {
	if h == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" {
		return nil
	}
	h.eventsTotal.WithLabelValues(normalized.Verb, normalized.ObjectType).Inc()

	switch normalized.ObjectType {
	case activity.ObjectFitEntry:
		post, ok := finite(normalized.Metadata["post_chi2"])
		if !ok || normalized.Verb == activity.VerbFitSkipped {
			return nil
		}
		h.chiSquare.WithLabelValues(normalized.Verb).Observe(post)
		if normalized.Verb != activity.VerbFitCommitted {
			return nil
		}
		if pre, ok := finite(normalized.Metadata["pre_chi2"]); ok && pre > 0 {
			h.improvement.Observe(post / pre)
		}
	case activity.ObjectParamFile:
		if n, ok := normalized.Metadata["entries"].(int); ok && n > 0 {
			h.entriesTouched.WithLabelValues(normalized.Verb).Add(float64(n))
		}
	}
	return nil
}

func finite(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Package telemetry exposes Prometheus collectors for the geodiversity
// engine: run counts and durations, feature throughput, skip reasons, and
// workspace cleanup failures.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the engine's Prometheus metrics.
type Collector struct {
	// Run lifecycle
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	ActiveRuns  prometheus.Gauge

	// Catalog
	CatalogBuildDuration prometheus.Histogram
	ZonesPerRun          prometheus.Histogram

	// Aggregation
	FeaturesProcessed *prometheus.CounterVec
	FeaturesSkipped   *prometheus.CounterVec
	SparseZonesTotal  *prometheus.CounterVec

	// Output
	FieldWritesTotal     *prometheus.CounterVec
	CleanupFailuresTotal prometheus.Counter
}

// NewCollector creates a Collector registered on the default Prometheus
// registry. Call once per process.
func NewCollector(namespace string) *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer), namespace)
}

// NewCollectorWith creates a Collector registered on the given registry.
// Intended for tests and embedders that manage their own registry.
func NewCollectorWith(reg prometheus.Registerer, namespace string) *Collector {
	return newCollector(promauto.With(reg), namespace)
}

func newCollector(factory promauto.Factory, namespace string) *Collector {
	return &Collector{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed runs by metric code and outcome",
			},
			[]string{"metric", "status"},
		),

		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "End-to-end run duration in seconds by metric code",
				Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"metric"},
		),

		ActiveRuns: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_runs",
				Help:      "Number of runs currently executing",
			},
		),

		CatalogBuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_build_duration_seconds",
				Help:      "Zone catalog build duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),

		ZonesPerRun: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "zones_per_run",
				Help:      "Number of zones in the analytical grid per run",
				Buckets:   []float64{10, 100, 1000, 10000, 100000, 1000000},
			},
		),

		FeaturesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "features_processed_total",
				Help:      "Features and raster samples routed into accumulators, by metric code",
			},
			[]string{"metric"},
		),

		FeaturesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "features_skipped_total",
				Help:      "Features excluded from aggregation by reason",
			},
			[]string{"reason"}, // "category_domain", "out_of_extent", "degenerate", "nodata"
		),

		SparseZonesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sparse_zones_total",
				Help:      "Zones that received the no-data sentinel for lack of samples, by metric code",
			},
			[]string{"metric"},
		),

		FieldWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_writes_total",
				Help:      "Attribute field commits by outcome",
			},
			[]string{"status"}, // "written", "overwritten", "failed"
		),

		CleanupFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanup_failures_total",
				Help:      "Scoped workspace releases that could not fully remove their artifacts",
			},
		),
	}
}

// Timer measures an operation and reports it to a histogram.
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer starts a timer that will observe into the given histogram.
func (c *Collector) NewTimer(observer prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: observer,
	}
}

// ObserveDuration records the elapsed time since the timer started and
// returns it.
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordRun increments the run counter for a metric code and outcome.
func (c *Collector) RecordRun(metric, status string) {
	c.RunsTotal.WithLabelValues(metric, status).Inc()
}

// RecordSkip increments the skipped-feature counter for a reason.
func (c *Collector) RecordSkip(reason string, n int) {
	if n > 0 {
		c.FeaturesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordFieldWrite increments the field-commit counter for an outcome.
func (c *Collector) RecordFieldWrite(status string) {
	c.FieldWritesTotal.WithLabelValues(status).Inc()
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "drought_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Dataset metrics, set once at startup.
	DatasetRecords    prometheus.Gauge
	DatasetBoundaries prometheus.Gauge
	DatasetDates      prometheus.Gauge

	// Heatmap cache metrics.
	HeatmapCache         *prometheus.CounterVec // labels: result={hit,miss,shared}
	HeatmapCacheEntries  prometheus.Gauge
	HeatmapBuildDuration prometheus.Histogram
	UnmatchedCounties    prometheus.Counter

	// Dispatcher metrics.
	ControlEvents *prometheus.CounterVec // labels: control
	ViewRenders   *prometheus.CounterVec // labels: view
	ViewErrors    *prometheus.CounterVec // labels: view

	// Event publishing metrics.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.DatasetRecords,
		m.DatasetBoundaries,
		m.DatasetDates,
		m.HeatmapCache,
		m.HeatmapCacheEntries,
		m.HeatmapBuildDuration,
		m.UnmatchedCounties,
		m.ControlEvents,
		m.ViewRenders,
		m.ViewErrors,
		m.EventsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      help("Drought records loaded at startup."),
		}),
		DatasetBoundaries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_boundaries",
			Help:      help("County boundaries loaded at startup."),
		}),
		DatasetDates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_release_dates",
			Help:      help("Distinct map release dates available on the slider."),
		}),
		HeatmapCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heatmap_cache_total",
			Help:      help("Heatmap cache lookups by result."),
		}, []string{"result"}),
		HeatmapCacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heatmap_cache_entries",
			Help:      help("Heatmap payloads held in the cache."),
		}),
		HeatmapBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "heatmap_build_duration_seconds",
			Help:      help("Duration of a heatmap resolve-normalize-build cycle."),
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		UnmatchedCounties: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heatmap_unmatched_counties_total",
			Help:      help("Selected counties dropped from heatmaps for lack of a boundary."),
		}),
		ControlEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_events_total",
			Help:      help("Control change events received, by control."),
		}, []string{"control"}),
		ViewRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_renders_total",
			Help:      help("View recomputations, by view."),
		}, []string{"view"}),
		ViewErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_errors_total",
			Help:      help("View recomputations that failed, by view."),
		}, []string{"view"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      help("Interaction events handed to the event sink, by outcome."),
		}, []string{"outcome"}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forecast_ranker"

// Metrics holds the Prometheus counters, histograms, and gauges for the ranking pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	Runs            *prometheus.CounterVec // labels: outcome={success,failed}
	RunDuration     prometheus.Histogram

	// Fetch stage.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration prometheus.Histogram
	FetchCache    *prometheus.CounterVec // labels: result={hit,miss}
	FetchRetries  prometheus.Counter

	// Reduce stage.
	LocationsReduced prometheus.Counter
	ReduceErrors     prometheus.Counter

	// Persist and select stages.
	PersistDuration   prometheus.Histogram
	PersistErrors     prometheus.Counter
	FavoritesSelected prometheus.Gauge
	RatingsPublished  prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress, 0 otherwise.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-reduce-persist-select run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Per-location forecast fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Per-location forecast fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Forecast HTTP requests retried after a transient failure.",
		}),
		LocationsReduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locations_reduced_total",
			Help:      "Locations reduced to daily statistics.",
		}),
		ReduceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reduce_errors_total",
			Help:      "Forecast documents rejected during reduction.",
		}),
		PersistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Duration of writing the reduced collection.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Failed writes of the reduced collection.",
		}),
		FavoritesSelected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "favorites_selected",
			Help:      "Number of favorite locations chosen by the last run.",
		}),
		RatingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_published_total",
			Help:      "Location ratings written to the ratings topic.",
		}),
	}

	prometheus.MustRegister(
		m.PipelineRunning,
		m.Runs,
		m.RunDuration,
		m.FetchRequests,
		m.FetchDuration,
		m.FetchCache,
		m.FetchRetries,
		m.LocationsReduced,
		m.ReduceErrors,
		m.PersistDuration,
		m.PersistErrors,
		m.FavoritesSelected,
		m.RatingsPublished,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		Runs:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "runs_total"}, []string{"outcome"}),
		RunDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "run_duration_seconds"}),
		FetchRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "fetch_requests_total"}, []string{"outcome"}),
		FetchDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "fetch_duration_seconds"}),
		FetchCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "fetch_cache_total"}, []string{"result"}),
		FetchRetries:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "fetch_retries_total"}),
		LocationsReduced:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "locations_reduced_total"}),
		ReduceErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reduce_errors_total"}),
		PersistDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "persist_duration_seconds"}),
		PersistErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "persist_errors_total"}),
		FavoritesSelected: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "favorites_selected"}),
		RatingsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ratings_published_total"}),
	}
}

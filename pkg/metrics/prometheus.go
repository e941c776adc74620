package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine and its adapters.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Inference metrics - what the convergence loop is doing.
	sweeps            prometheus.Counter
	sweepDuration     prometheus.Histogram
	matchesProcessed  prometheus.Counter
	degenerateUpdates prometheus.Counter
	convergenceDelta  prometheus.Gauge
	engineState       prometheus.Gauge

	// Registry metrics - size of the belief state.
	competitors prometheus.Gauge
	checkpoints prometheus.Gauge

	// Leaderboard metrics - reporting-side activity.
	ratingsPublished   prometheus.Counter
	leaderboardQueries prometheus.Counter

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skilldrift",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.sweeps = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sweeps_total",
		Help:      "Total full forward/backward sweeps executed.",
	})
	m.sweepDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sweep_duration_ms",
		Help:      "Duration of one full sweep in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.matchesProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_processed_total",
		Help:      "Total per-match factor graph updates.",
	})
	m.degenerateUpdates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "degenerate_updates_total",
		Help:      "Checkpoint updates that needed a numeric recovery.",
	})
	m.convergenceDelta = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "convergence_delta",
		Help:      "Maximum posterior change measured by the last sweep.",
	})
	m.engineState = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "state",
		Help:      "Engine state: 0 uninitialized, 1 running, 2 converged, 3 budget exhausted.",
	})
	m.competitors = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competitors",
		Help:      "Competitors tracked in the registry.",
	})
	m.checkpoints = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "checkpoints",
		Help:      "Total checkpoints across all timelines.",
	})
	m.ratingsPublished = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "ratings_published_total",
		Help:      "Conservative ratings published to the leaderboard store.",
	})
	m.leaderboardQueries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "queries_total",
		Help:      "Leaderboard read queries served.",
	})
	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the registry backing the global manager, for exposure
// through an HTTP handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers against the global manager.

// RecordSweepDuration observes one sweep and its duration in milliseconds.
func RecordSweepDuration(ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.sweeps.Inc()
	globalManager.sweepDuration.Observe(ms)
}

// RecordMatchProcessed counts one factor graph update.
func RecordMatchProcessed() {
	if !globalManager.enabled {
		return
	}
	globalManager.matchesProcessed.Inc()
}

// RecordDegenerateUpdate counts a checkpoint that needed a numeric recovery.
func RecordDegenerateUpdate() {
	if !globalManager.enabled {
		return
	}
	globalManager.degenerateUpdates.Inc()
}

// UpdateConvergenceDelta publishes the last sweep's maximum posterior change.
func UpdateConvergenceDelta(delta float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.convergenceDelta.Set(delta)
}

// UpdateEngineState publishes the engine lifecycle state.
func UpdateEngineState(state int) {
	if !globalManager.enabled {
		return
	}
	globalManager.engineState.Set(float64(state))
}

// UpdateCompetitors publishes the registry size.
func UpdateCompetitors(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.competitors.Set(float64(n))
}

// UpdateCheckpoints publishes the total checkpoint count.
func UpdateCheckpoints(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.checkpoints.Set(float64(n))
}

// RecordRatingPublished counts a rating pushed to the leaderboard store.
func RecordRatingPublished() {
	if !globalManager.enabled {
		return
	}
	globalManager.ratingsPublished.Inc()
}

// RecordLeaderboardQuery counts a leaderboard read.
func RecordLeaderboardQuery() {
	if !globalManager.enabled {
		return
	}
	globalManager.leaderboardQueries.Inc()
}

// RecordHTTPRequest counts one request.
func RecordHTTPRequest(endpoint, method, status string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes one request's duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

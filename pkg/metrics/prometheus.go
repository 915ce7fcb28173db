// Package metrics provides Prometheus metrics for the courtprior pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector emitted by the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingestion
	shotsIngested     prometheus.Counter
	shotsDropped      *prometheus.CounterVec
	observationsBuilt prometheus.Counter
	rowsDropped       *prometheus.CounterVec

	// Estimation
	priorsComputed     prometheus.Gauge
	posteriorsComputed prometheus.Counter
	posteriorsSkipped  *prometheus.CounterVec
	numericFailures    prometheus.Counter
	priorFallbacks     prometheus.Counter
	solverIterations   prometheus.Histogram

	// Runs
	runDuration  prometheus.Histogram
	runsTotal    *prometheus.CounterVec
	lastRunUnix  prometheus.Gauge
	boardEntries prometheus.Gauge

	// Worker fan-out
	workerCount        prometheus.Gauge
	workerBatchLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// Persistence
	storeWriteLatency prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // dedicated registry without Go runtime collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "courtprior",
		subsystem:        "pipeline",
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

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.shotsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shots_ingested_total",
		Help:      "Shot events read from the corpus",
	})
	m.shotsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shots_dropped_total",
		Help:      "Shot events excluded before aggregation, by reason",
	}, []string{"reason"})
	m.observationsBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_total",
		Help:      "Player-zone observations fed to the posterior engine",
	})
	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observation_rows_dropped_total",
		Help:      "Aggregated player-zone rows excluded on read, by reason",
	}, []string{"reason"})

	m.priorsComputed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "priors",
		Help:      "Position-zone priors in the latest run",
	})
	m.posteriorsComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "posteriors_computed_total",
		Help:      "Player-zone posteriors produced",
	})
	m.posteriorsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "posteriors_skipped_total",
		Help:      "Observations skipped by the posterior engine, by reason",
	}, []string{"reason"})
	m.numericFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "numeric_failures_total",
		Help:      "Credible interval solver failures",
	})
	m.priorFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prior_fallbacks_total",
		Help:      "Observations scored against the league zone prior",
	})
	m.solverIterations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quantile_solver_iterations",
		Help:      "Bisection steps per Beta quantile",
		Buckets:   []float64{4, 8, 16, 24, 32, 40, 48, 64, 96, 128, 200},
	})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_milliseconds",
		Help:      "Wall time of a full analysis run",
		Buckets:   m.histogramBuckets,
	})
	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Analysis runs by outcome",
	}, []string{"outcome"})
	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the latest completed run",
	})
	m.boardEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "board_entries",
		Help:      "Player-zone rows held by the ranking board",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Goroutines used for the posterior fan-out",
	})
	m.workerBatchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_batch_latency_milliseconds",
		Help:      "Time to compute one worker batch",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Time to persist one run",
		Buckets:   m.histogramBuckets,
	})
}

// RecordShotsIngested adds n to the ingested shots counter.
func RecordShotsIngested(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.shotsIngested.Add(float64(n))
}

// RecordShotsDropped adds n dropped shots under reason.
func RecordShotsDropped(reason string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.shotsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordObservations adds n to the observation counter.
func RecordObservations(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.observationsBuilt.Add(float64(n))
}

// RecordObservationRowsDropped adds n unusable aggregated rows under reason.
func RecordObservationRowsDropped(reason string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// UpdatePriorCount sets the number of priors in the latest run.
func UpdatePriorCount(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.priorsComputed.Set(float64(n))
}

// RecordPosteriorsComputed adds n produced posteriors.
func RecordPosteriorsComputed(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.posteriorsComputed.Add(float64(n))
}

// RecordPosteriorsSkipped adds n skipped observations under reason.
func RecordPosteriorsSkipped(reason string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.posteriorsSkipped.WithLabelValues(reason).Add(float64(n))
}

// RecordNumericFailures adds n solver failures.
func RecordNumericFailures(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.numericFailures.Add(float64(n))
}

// RecordPriorFallbacks adds n league-prior fallbacks.
func RecordPriorFallbacks(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.priorFallbacks.Add(float64(n))
}

// RecordSolverIterations observes the number of bisection steps of one quantile.
func RecordSolverIterations(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.solverIterations.Observe(float64(n))
}

// RecordRun observes a finished run.
func RecordRun(outcome string, durationMs float64, finishedUnix float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.runsTotal.WithLabelValues(outcome).Inc()
	globalManager.runDuration.Observe(durationMs)
	if outcome == "ok" {
		globalManager.lastRunUnix.Set(finishedUnix)
	}
}

// UpdateBoardEntries sets the number of rows held by the ranking board.
func UpdateBoardEntries(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.boardEntries.Set(float64(n))
}

// UpdateWorkerCount sets the fan-out width.
func UpdateWorkerCount(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerCount.Set(float64(n))
}

// RecordWorkerBatchLatency observes one worker batch in milliseconds.
func RecordWorkerBatchLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerBatchLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPRateLimited increments the rate-limited request counter.
func RecordHTTPRateLimited() {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRateLimited.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an HTTP error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordStoreWriteLatency observes the time taken to persist a run.
func RecordStoreWriteLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

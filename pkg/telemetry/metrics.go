package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Operation outcomes used as metric label values.
const (
	OutcomeOK    = "ok"
	OutcomeNoop  = "noop"
	OutcomeError = "error"
)

// Metrics provides Prometheus metrics for the fitdex stores.
type Metrics struct {
	config MetricsConfig

	// Store operation metrics
	storeOperations        *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec
	hydrations             *prometheus.CounterVec

	// Store state metrics
	favoritesCount prometheus.Gauge
	signedIn       prometheus.Gauge
	queueDepth     *prometheus.GaugeVec

	// Backend metrics
	storageOperations *prometheus.CounterVec
	storageDuration   *prometheus.HistogramVec

	// Remote API metrics
	apiRequests *prometheus.CounterVec
	apiDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		storeOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of store operations by outcome",
			},
			[]string{"store", "operation", "outcome"},
		),
		storeOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Duration of store operations in seconds, including queue wait",
				Buckets:   buckets,
			},
			[]string{"store", "operation"},
		),
		hydrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hydrations_total",
				Help:      "Total number of store hydrations by resulting status",
			},
			[]string{"store", "status"},
		),

		favoritesCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "favorites",
				Help:      "Current number of favorited exercises",
			},
		),
		signedIn: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "signed_in",
				Help:      "Whether a user is signed in (1) or not (0)",
			},
		),
		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mutation_queue_depth",
				Help:      "Number of mutations waiting for or holding the store's queue",
			},
			[]string{"store"},
		),

		storageOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of durable key-value operations",
			},
			[]string{"backend", "operation", "outcome"},
		),
		storageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_operation_duration_seconds",
				Help:      "Duration of durable key-value operations in seconds",
				Buckets:   buckets,
			},
			[]string{"backend", "operation"},
		),

		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exercise_api_requests_total",
				Help:      "Total number of exercise search requests",
			},
			[]string{"outcome"},
		),
		apiDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "exercise_api_request_duration_seconds",
				Help:      "Duration of exercise search requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		m.storeOperations,
		m.storeOperationDuration,
		m.hydrations,
		m.favoritesCount,
		m.signedIn,
		m.queueDepth,
		m.storageOperations,
		m.storageDuration,
		m.apiRequests,
		m.apiDuration,
	)

	return m, nil
}

// Store Metrics

// RecordStoreOperation records a store operation with its outcome and duration.
func (m *Metrics) RecordStoreOperation(store, operation, outcome string, duration time.Duration) {
	if m == nil || m.storeOperations == nil {
		return
	}
	m.storeOperations.WithLabelValues(store, operation, outcome).Inc()
	m.storeOperationDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
}

// RecordHydration records the status a store reached after hydrating.
func (m *Metrics) RecordHydration(store, status string) {
	if m == nil || m.hydrations == nil {
		return
	}
	m.hydrations.WithLabelValues(store, status).Inc()
}

// SetFavoritesCount sets the current number of favorites.
func (m *Metrics) SetFavoritesCount(count int) {
	if m == nil || m.favoritesCount == nil {
		return
	}
	m.favoritesCount.Set(float64(count))
}

// SetSignedIn sets the signed-in gauge.
func (m *Metrics) SetSignedIn(signedIn bool) {
	if m == nil || m.signedIn == nil {
		return
	}
	value := 0.0
	if signedIn {
		value = 1.0
	}
	m.signedIn.Set(value)
}

// SetQueueDepth sets the mutation queue depth for a store.
func (m *Metrics) SetQueueDepth(store string, depth int) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.WithLabelValues(store).Set(float64(depth))
}

// Backend Metrics

// RecordStorageOperation records a durable key-value operation.
func (m *Metrics) RecordStorageOperation(backend, operation string, err error, duration time.Duration) {
	if m == nil || m.storageOperations == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.storageOperations.WithLabelValues(backend, operation, outcome).Inc()
	m.storageDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// API Metrics

// RecordAPIRequest records an exercise search request.
func (m *Metrics) RecordAPIRequest(err error, duration time.Duration) {
	if m == nil || m.apiRequests == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.apiRequests.WithLabelValues(outcome).Inc()
	m.apiDuration.Observe(duration.Seconds())
}

// Registry returns the underlying registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics. It returns
// the server so the caller can shut it down; nil when nothing was started.
func (m *Metrics) StartMetricsServer(addr string) *http.Server {
	if m == nil || !m.config.Enabled || addr == "" {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server error")
		}
	}()

	return server
}

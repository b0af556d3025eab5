// Package metrics exposes Prometheus counters for the HTTP layer and the
// commitment domain.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	CommitmentsCreated  prometheus.Counter
	CommitmentsUpdated  prometheus.Counter
	AdmissionsClosed    prometheus.Counter
	ExportsCreated      prometheus.Counter
	NarrativesGenerated prometheus.Counter
	NarrativeTokens     prometheus.Counter
	LoginAttempts       *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		CommitmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commitments_created_total",
			Help: "Total number of commitments created",
		}),
		CommitmentsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commitments_updated_total",
			Help: "Total number of commitment updates",
		}),
		AdmissionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "admissions_closed_total",
			Help: "Total number of admissions closed",
		}),
		ExportsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exports_created_total",
			Help: "Total number of exports created",
		}),
		NarrativesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "narratives_generated_total",
			Help: "Total number of AI narratives generated",
		}),
		NarrativeTokens: promauto.NewCounter(prometheus.CounterOpts{
			Name: "narrative_tokens_total",
			Help: "Total tokens consumed by AI narratives",
		}),
		LoginAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"status"}, // success, failed
		),

		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			// Route pattern, not the raw path, so ids do not explode the
			// label cardinality.
			path := c.Path()

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)

			return err
		}
	}
}

// RecordCommitmentCreated increments the created counter.
func (m *Metrics) RecordCommitmentCreated() {
	m.CommitmentsCreated.Inc()
}

// RecordCommitmentUpdated increments the updated counter.
func (m *Metrics) RecordCommitmentUpdated() {
	m.CommitmentsUpdated.Inc()
}

// RecordAdmissionClosed increments the admissions closed counter.
func (m *Metrics) RecordAdmissionClosed() {
	m.AdmissionsClosed.Inc()
}

// RecordExportCreated increments the exports created counter.
func (m *Metrics) RecordExportCreated() {
	m.ExportsCreated.Inc()
}

// RecordNarrative records one generated narrative and its token spend.
func (m *Metrics) RecordNarrative(tokens int) {
	m.NarrativesGenerated.Inc()
	m.NarrativeTokens.Add(float64(tokens))
}

// RecordLoginAttempt increments the login attempts counter.
func (m *Metrics) RecordLoginAttempt(success bool) {
	status := "failed"
	if success {
		status = "success"
	}
	m.LoginAttempts.WithLabelValues(status).Inc()
}

// RecordCacheHit increments the cache hits counter.
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments the cache misses counter.
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}

// Package metrics exposes prometheus collectors for the sync endpoints.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sync record outcomes
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeError   = "error"
)

// Metrics holds the collectors registered on a private registry
type Metrics struct {
	registry          *prometheus.Registry
	syncRecords       *prometheus.CounterVec
	syncBatches       prometheus.Counter
	syncBatchDuration prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	rateLimited       prometheus.Counter
}

// New creates and registers every collector. Runtime collectors are added
// when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "receipts_sync_records_total",
			Help: "Bulk-sync records processed, by outcome.",
		}, []string{"outcome"}),
		syncBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "receipts_sync_batches_total",
			Help: "Bulk-sync batches processed.",
		}),
		syncBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "receipts_sync_batch_duration_seconds",
			Help:    "Time spent reconciling a bulk-sync batch.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "receipts_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "receipts_rate_limited_total",
			Help: "Requests rejected by the per-business rate limiter.",
		}),
	}

	m.registry.MustRegister(
		m.syncRecords,
		m.syncBatches,
		m.syncBatchDuration,
		m.httpRequests,
		m.rateLimited,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// Pre-create outcome series so dashboards see zeros
	for _, outcome := range []string{OutcomeCreated, OutcomeUpdated, OutcomeError} {
		m.syncRecords.WithLabelValues(outcome)
	}
	return m
}

// ObserveSyncRecord counts one reconciled record
func (m *Metrics) ObserveSyncRecord(outcome string) {
	if m == nil {
		return
	}
	m.syncRecords.WithLabelValues(outcome).Inc()
}

// ObserveSyncBatch counts one batch and its duration
func (m *Metrics) ObserveSyncBatch(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.syncBatches.Inc()
	m.syncBatchDuration.Observe(elapsed.Seconds())
}

// ObserveRateLimited counts one rejected request
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Middleware counts every request by route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

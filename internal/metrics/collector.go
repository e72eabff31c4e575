// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector registers and records the bridge's Prometheus metrics.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	backendFailures  *prometheus.CounterVec
	auditDropped     prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector. Metric names are namespaced; tests use
// distinct namespaces to avoid duplicate registration.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of processed request lines",
		},
		[]string{"tool", "outcome"},
	)

	c.dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Request dispatch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	c.inFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Number of request lines currently being processed",
		},
	)

	c.backendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_failures_total",
			Help:      "Total number of failed backend calls",
		},
		[]string{"code"},
	)

	c.auditDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_dropped_total",
			Help:      "Total number of audit entries dropped on queue overflow",
		},
	)

	return c
}

// RecordDispatch records one completed request line.
func (c *Collector) RecordDispatch(tool, outcome string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(tool, outcome).Inc()
	c.dispatchDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// IncInFlight marks one unit of work started.
func (c *Collector) IncInFlight() { c.inFlight.Inc() }

// DecInFlight marks one unit of work finished.
func (c *Collector) DecInFlight() { c.inFlight.Dec() }

// RecordBackendFailure counts one failed backend call by error code.
func (c *Collector) RecordBackendFailure(code string) {
	c.backendFailures.WithLabelValues(code).Inc()
}

// RecordAuditDrop counts one dropped audit entry.
func (c *Collector) RecordAuditDrop() { c.auditDropped.Inc() }

// Package metrics defines the Prometheus collectors for the pinlog server.
// Collectors are created unregistered; call Register with the registry the
// /metrics endpoint serves.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricStorageOperations = "pinlog_storage_operations_total"
	MetricCacheLookups      = "pinlog_offline_cache_lookups_total"
	MetricHTTPRequests      = "pinlog_http_requests_total"
	MetricHTTPDuration      = "pinlog_http_request_duration_seconds"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultFallback = "fallback"
	ResultOffline  = "offline"
)

// Metrics holds every collector. All methods are safe for concurrent use and
// tolerate a nil receiver, so callers never need a no-op implementation.
type Metrics struct {
	storageOps   *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		storageOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricStorageOperations,
				Help: "Store operations by entity, operation and result",
			},
			[]string{"entity", "op", "result"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheLookups,
				Help: "Offline cache lookups by strategy and result",
			},
			[]string{"strategy", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequests,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.storageOps, m.cacheLookups, m.httpRequests, m.httpDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// StorageOp counts one store operation. err decides the result label.
func (m *Metrics) StorageOp(entity, op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.storageOps.WithLabelValues(entity, op, result).Inc()
}

// CacheLookup counts one offline cache decision.
func (m *Metrics) CacheLookup(strategy, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(strategy, result).Inc()
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	s := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, s).Inc()
	m.httpDuration.WithLabelValues(method, route, s).Observe(d.Seconds())
}

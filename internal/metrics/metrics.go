// Package metrics provides Prometheus instrumentation for the client data layer.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records client-side request and cache counters.
// All methods are safe to call on a nil receiver, so instrumentation
// can be left unwired in tests and small tools.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	forcedLogouts prometheus.Counter
}

// New creates and registers the metric set on the given registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Outbound HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_cache_hits_total",
			Help:      "Store fetches served from the local cache.",
		}, []string{"store"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_cache_misses_total",
			Help:      "Store fetches that went to the backend.",
		}, []string{"store"}),
		forcedLogouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_logouts_total",
			Help:      "Sessions torn down after a 401 response.",
		}),
	}

	reg.MustRegister(m.requestsTotal, m.cacheHits, m.cacheMisses, m.forcedLogouts)
	return m
}

// RecordRequest records one outbound request. A status of 0 means the
// request failed before a response was received.
func (m *Metrics) RecordRequest(method string, status int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// RecordCacheHit records a fetch answered from cache.
func (m *Metrics) RecordCacheHit(store string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(store).Inc()
}

// RecordCacheMiss records a fetch that issued a backend call.
func (m *Metrics) RecordCacheMiss(store string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(store).Inc()
}

// RecordForcedLogout records a session teardown triggered by a 401.
func (m *Metrics) RecordForcedLogout() {
	if m == nil {
		return
	}
	m.forcedLogouts.Inc()
}

// Package metrics exposes Prometheus metrics for the screener.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  prometheus.Histogram

	// Screening
	ScreensTotal   *prometheus.CounterVec
	ScreenDuration prometheus.Histogram
	CoinsScanned   prometheus.Counter
	CoinsMatched   prometheus.Gauge

	// Cache
	CacheLookups *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "volume_screener"
	}

	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Markets page requests by HTTP status code",
		}, []string{"code"}),
		UpstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of markets page requests",
			Buckets:   prometheus.DefBuckets,
		}),
		ScreensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "runs_total",
			Help:      "Screens executed by outcome",
		}, []string{"outcome"}),
		ScreenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "duration_seconds",
			Help:      "Duration of a full multi-page screen",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
		}),
		CoinsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "coins_scanned_total",
			Help:      "Raw coins examined across all screens",
		}),
		CoinsMatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "coins_matched",
			Help:      "Coins returned by the most recent screen",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Screen cache lookups by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamLatency,
		m.ScreensTotal,
		m.ScreenDuration,
		m.CoinsScanned,
		m.CoinsMatched,
		m.CacheLookups,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one markets page request. code is 0 on transport failure.
func (m *Metrics) ObserveUpstream(code int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.UpstreamRequests.WithLabelValues(label).Inc()
	m.UpstreamLatency.Observe(d.Seconds())
}

// ObserveScreen records a completed or failed screen.
func (m *Metrics) ObserveScreen(err error, scanned, matched int, d time.Duration) {
	if m == nil {
		return
	}
	if err != nil {
		m.ScreensTotal.WithLabelValues("error").Inc()
		return
	}
	m.ScreensTotal.WithLabelValues("ok").Inc()
	m.ScreenDuration.Observe(d.Seconds())
	m.CoinsScanned.Add(float64(scanned))
	m.CoinsMatched.Set(float64(matched))
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	RequestsTotal       prometheus.Counter
	CacheLookupsTotal   *prometheus.CounterVec
	UpstreamDuration    *prometheus.HistogramVec
	UpstreamErrorsTotal *prometheus.CounterVec
	ScrapeDegradedTotal prometheus.Counter
	CacheSweptTotal     *prometheus.CounterVec

	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	Registry            *prometheus.Registry
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listing_requests_total",
			Help: "Total number of listing lookups",
		}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listing_cache_lookups_total",
			Help: "Cache lookups by cache and result (hit or miss)",
		}, []string{"cache", "result"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "listing_upstream_duration_seconds",
			Help:    "Latency of upstream calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		UpstreamErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listing_upstream_errors_total",
			Help: "Failed upstream calls",
		}, []string{"operation"}),
		ScrapeDegradedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listing_scrape_degraded_total",
			Help: "Page scrapes that fell back to listing data",
		}),
		CacheSweptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listing_cache_swept_total",
			Help: "Expired entries removed by the periodic sweep",
		}, []string{"cache"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		Registry: reg,
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.CacheLookupsTotal,
		m.UpstreamDuration,
		m.UpstreamErrorsTotal,
		m.ScrapeDegradedTotal,
		m.CacheSweptTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
	)

	return m
}

func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.RequestsTotal.Inc()
}

func (m *Metrics) ObserveCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) ObserveUpstream(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.UpstreamErrorsTotal.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) IncScrapeDegraded() {
	if m == nil {
		return
	}
	m.ScrapeDegradedTotal.Inc()
}

func (m *Metrics) AddCacheSwept(cache string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CacheSweptTotal.WithLabelValues(cache).Add(float64(n))
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

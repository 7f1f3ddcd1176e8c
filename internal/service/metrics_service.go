package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type httpMetrics struct {
	latency  *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

type cacheMetrics struct {
	lookups prometheus.Histogram
	writes  prometheus.Histogram
	hits    prometheus.Counter
	misses  prometheus.Counter
}

// MetricsService owns the Prometheus registry for this process. All methods
// are nil-receiver safe so callers never have to branch on whether metrics
// are enabled.
type MetricsService struct {
	registry *prometheus.Registry
	serve    http.Handler
	http     httpMetrics
	cache    cacheMetrics
}

// NewMetricsService builds a registry with the HTTP and cache collectors.
func NewMetricsService() *MetricsService {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &MetricsService{
		registry: reg,
		http: httpMetrics{
			latency: factory.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "path", "status"}),
			requests: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			}, []string{"method", "path", "status"}),
		},
		cache: cacheMetrics{
			lookups: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "cache_latency_seconds",
				Help:    "Latency for cache lookups",
				Buckets: prometheus.DefBuckets,
			}),
			writes: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "cache_write_seconds",
				Help:    "Latency for cache set operations",
				Buckets: prometheus.DefBuckets,
			}),
			hits: factory.NewCounter(prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total cache hits",
			}),
			misses: factory.NewCounter(prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total cache misses",
			}),
		},
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.serve = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.serve
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.http.latency.WithLabelValues(labels...).Observe(duration.Seconds())
	m.http.requests.WithLabelValues(labels...).Inc()
}

// RecordCacheOperation records a cache lookup and its outcome.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cache.lookups.Observe(duration.Seconds())
	if hit {
		m.cache.hits.Inc()
	} else {
		m.cache.misses.Inc()
	}
}

// ObserveCacheWrite records the duration of a cache set.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cache.writes.Observe(duration.Seconds())
}

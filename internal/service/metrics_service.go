package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
)

// MetricsService owns the Prometheus registry of the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	roleLookups     *prometheus.CounterVec
	purgeRuns       *prometheus.CounterVec
	purgeDeleted    prometheus.Counter
	purgePhotos     prometheus.Counter
	photoBatchFails prometheus.Counter
	notifications   *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the API collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		roleLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "role_lookups_total",
			Help: "Privilege and profile lookups by check and outcome",
		}, []string{"check", "outcome"}),
		purgeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purge_runs_total",
			Help: "Demanda purge invocations by mode and result",
		}, []string{"mode", "result"}),
		purgeDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "purge_deleted_demandas_total",
			Help: "Demandas removed by purges",
		}),
		purgePhotos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "purge_removed_photos_total",
			Help: "Photos removed by purges",
		}),
		photoBatchFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "purge_photo_batch_failures_total",
			Help: "Photo removal batches that failed during a purge",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_notifications_total",
			Help: "Administrator notification deliveries by result",
		}, []string{"result"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.roleLookups, m.purgeRuns, m.purgeDeleted, m.purgePhotos, m.photoBatchFails, m.notifications,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordRoleLookup counts one privilege lookup outcome.
func (m *MetricsService) RecordRoleLookup(check string, outcome models.Outcome) {
	if m == nil {
		return
	}
	m.roleLookups.WithLabelValues(check, outcome.String()).Inc()
}

// RecordPurge counts a purge run and the rows and photos it removed.
func (m *MetricsService) RecordPurge(dryRun bool, failed bool, deleted, removedPhotos int) {
	if m == nil {
		return
	}
	mode := "execute"
	if dryRun {
		mode = "preview"
	}
	result := "ok"
	if failed {
		result = "error"
	}
	m.purgeRuns.WithLabelValues(mode, result).Inc()
	m.purgeDeleted.Add(float64(deleted))
	m.purgePhotos.Add(float64(removedPhotos))
}

// RecordPhotoBatchFailure counts a skipped photo removal batch.
func (m *MetricsService) RecordPhotoBatchFailure() {
	if m == nil {
		return
	}
	m.photoBatchFails.Inc()
}

// RecordNotification counts an administrator notification attempt.
func (m *MetricsService) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

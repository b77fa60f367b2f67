// Package metrics exposes Prometheus collectors for the comic service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	chapterReadsTotal          prometheus.Counter
	imageUploadsTotal          *prometheus.CounterVec
	imageUploadDuration        prometheus.Histogram
	cacheRequestsTotal         *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method, route and code.",
			},
			[]string{"method", "route", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		chapterReadsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "comic_chapter_reads_total",
				Help: "Chapter reads counted after view deduplication.",
			},
		)

		imageUploadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_uploads_total",
				Help: "Image uploads to the image host, labeled by kind and status.",
			},
			[]string{"kind", "status"},
		)

		imageUploadDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "image_upload_duration_seconds",
				Help:    "Latency of single image uploads including retries.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)

		cacheRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_requests_total",
				Help: "Cache lookups, labeled by cache name and result (hit, miss, error).",
			},
			[]string{"cache", "result"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per matched gin route.
func Middleware() gin.HandlerFunc {
	Init()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveChapterRead counts one deduplicated chapter read.
func ObserveChapterRead() {
	if chapterReadsTotal == nil {
		return
	}
	chapterReadsTotal.Inc()
}

// ObserveImageUpload records an upload outcome for kind (cover, chapter, avatar).
func ObserveImageUpload(kind string, err error, duration time.Duration) {
	if imageUploadsTotal == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	imageUploadsTotal.WithLabelValues(kind, status).Inc()
	imageUploadDuration.Observe(duration.Seconds())
}

// ObserveCache records a cache lookup result.
func ObserveCache(cache, result string) {
	if cacheRequestsTotal == nil {
		return
	}
	cacheRequestsTotal.WithLabelValues(cache, result).Inc()
}

package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clubhub",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clubhub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clubhub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "path"},
	)

	loadAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clubhub",
			Subsystem: "sync",
			Name:      "load_attempts_total",
			Help:      "Remote club load attempts by outcome.",
		},
		[]string{"outcome"},
	)

	fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clubhub",
			Subsystem: "sync",
			Name:      "static_fallbacks_total",
			Help:      "Times the static dataset replaced remote data.",
		},
		[]string{"reason"},
	)

	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clubhub",
			Subsystem: "sync",
			Name:      "mutations_total",
			Help:      "Club mutations by operation, source and outcome.",
		},
		[]string{"operation", "source", "outcome"},
	)

	mockMode = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clubhub",
			Subsystem: "sync",
			Name:      "mock_mode",
			Help:      "1 when the service serves the static dataset.",
		},
	)

	liveSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clubhub",
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Current number of change feed subscribers.",
		},
	)

	avatarGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clubhub",
			Subsystem: "avatar",
			Name:      "generations_total",
			Help:      "Avatar generations by path and outcome.",
		},
		[]string{"path", "outcome"},
	)

	avatarDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clubhub",
			Subsystem: "avatar",
			Name:      "generation_duration_seconds",
			Help:      "Duration of avatar generation requests.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~64s
		},
		[]string{"path"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		loadAttempts,
		fallbacks,
		mutations,
		mockMode,
		liveSubscribers,
		avatarGenerations,
		avatarDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordLoadAttempt records one remote load attempt.
func RecordLoadAttempt(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	loadAttempts.WithLabelValues(outcome).Inc()
}

// RecordFallback records a switch to the static dataset.
func RecordFallback(reason string) {
	fallbacks.WithLabelValues(reason).Inc()
}

// RecordMutation records a club mutation.
func RecordMutation(operation, source string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	mutations.WithLabelValues(operation, source, outcome).Inc()
}

// SetMockMode mirrors the active data source.
func SetMockMode(mock bool) {
	if mock {
		mockMode.Set(1)
		return
	}
	mockMode.Set(0)
}

// AddSubscribers adjusts the live subscriber gauge.
func AddSubscribers(delta int) {
	liveSubscribers.Add(float64(delta))
}

// RecordAvatarGeneration records one avatar generation path.
func RecordAvatarGeneration(path string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	avatarGenerations.WithLabelValues(path, outcome).Inc()
	avatarDuration.WithLabelValues(path).Observe(duration.Seconds())
}

package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	TappedResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_responses_total",
			Help: "Upstream responses copied to the classifier",
		},
		[]string{"transport"},
	)

	ClassifiedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classified_events_total",
			Help: "Domain events produced by the classifier",
		},
		[]string{"topic"},
	)

	SubmissionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watched_submissions_total",
			Help: "Completion submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	AnswersLearned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "answers_learned_total",
			Help: "Question/answer pairs added to the cache",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(TappedResponses)
	prometheus.MustRegister(ClassifiedEvents)
	prometheus.MustRegister(SubmissionAttempts)
	prometheus.MustRegister(AnswersLearned)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

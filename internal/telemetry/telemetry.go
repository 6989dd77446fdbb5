// Package telemetry registers the Prometheus collectors of the service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// submissionsTotal counts accepted complaints by classification source.
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civiclens_submissions_total",
			Help: "Complaints submitted, by classification source",
		},
		[]string{"source", "urgency"},
	)

	// transitionsTotal counts lifecycle commands by action and outcome.
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civiclens_transitions_total",
			Help: "Lifecycle transitions requested, by action and result",
		},
		[]string{"action", "result"},
	)

	wardPerformanceIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "civiclens_ward_performance_index",
		Help: "Most recently computed Ward Performance Index (0-100)",
	})

	openEscalations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "civiclens_open_escalations",
		Help: "Open complaints past an escalation threshold at the last dashboard computation",
	})

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civiclens_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civiclens_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveSubmission records one accepted complaint.
func ObserveSubmission(source, urgency string) {
	submissionsTotal.WithLabelValues(source, urgency).Inc()
}

// ObserveTransition records one lifecycle command outcome.
func ObserveTransition(action, result string) {
	transitionsTotal.WithLabelValues(action, result).Inc()
}

// ObserveDashboard publishes the latest dashboard figures.
func ObserveDashboard(wpi int, escalated int) {
	wardPerformanceIndex.Set(float64(wpi))
	openEscalations.Set(float64(escalated))
}

// GinMiddleware records request counts and latency. The matched route
// template is used as the label so ids do not explode cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

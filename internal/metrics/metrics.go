package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry              *prometheus.Registry
	httpRequests          *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
	bookingsCreated       *prometheus.CounterVec
	bookingTransitions    *prometheus.CounterVec
	assignmentTransitions *prometheus.CounterVec
	emailsSent            *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created by source (guest or customer).",
		}, []string{"source"}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_status_transitions_total",
			Help: "Booking status changes by target status.",
		}, []string{"status"}),
		assignmentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignment_status_transitions_total",
			Help: "Assignment status changes by target status.",
		}, []string{"status"}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Outbound emails by kind and result.",
		}, []string{"kind", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.bookingsCreated,
		m.bookingTransitions,
		m.assignmentTransitions,
		m.emailsSent,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) BookingCreated(source string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) BookingTransition(status string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) AssignmentTransition(status string) {
	if m == nil {
		return
	}
	m.assignmentTransitions.WithLabelValues(status).Inc()
}

// EmailSent records an email attempt. result is "sent", "queued" or "failed".
func (m *Metrics) EmailSent(kind, result string) {
	if m == nil {
		return
	}
	m.emailsSent.WithLabelValues(kind, result).Inc()
}

// Package metrics holds the Prometheus collectors for the tutor server.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the tutor.
type Metrics struct {
	// Chat metrics
	RepliesTotal       *prometheus.CounterVec
	ProgressPoints     *prometheus.CounterVec
	IgnoredSubmissions prometheus.Counter
	RejectedChats      *prometheus.CounterVec

	// Session metrics
	AuthEvents     *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	ClientsSwept   prometheus.Counter
	RealtimeConns  prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics. Collectors are
// registered once per process; later calls return the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			RepliesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tutorcito_replies_total",
					Help: "Assistant replies by matched branch",
				},
				[]string{"branch"},
			),
			ProgressPoints: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tutorcito_progress_points_total",
					Help: "Progress points awarded by topic before clamping",
				},
				[]string{"topic"},
			),
			IgnoredSubmissions: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "tutorcito_ignored_submissions_total",
					Help: "Blank chat submissions that were ignored",
				},
			),
			RejectedChats: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tutorcito_rejected_chats_total",
					Help: "Chat submissions rejected before reaching the tutor",
				},
				[]string{"reason"},
			),
			AuthEvents: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tutorcito_auth_events_total",
					Help: "Simulated login, register and logout outcomes",
				},
				[]string{"event", "result"},
			),
			ActiveSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "tutorcito_active_sessions",
					Help: "Signed-in clients held in memory",
				},
			),
			ClientsSwept: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "tutorcito_clients_swept_total",
					Help: "Idle clients discarded by the TTL worker",
				},
			),
			RealtimeConns: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "tutorcito_realtime_connections",
					Help: "Open websocket chat connections",
				},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tutorcito_http_requests_total",
					Help: "HTTP requests by route, method and status",
				},
				[]string{"route", "method", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tutorcito_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"route", "method"},
			),
		}
	})
	return sharedMetrics
}

// RecordReply counts a reply and the points it awarded.
func (m *Metrics) RecordReply(branch string, points map[string]int) {
	if m == nil {
		return
	}
	m.RepliesTotal.WithLabelValues(branch).Inc()
	for topic, p := range points {
		m.ProgressPoints.WithLabelValues(topic).Add(float64(p))
	}
}

// RecordAuth counts a simulated auth outcome and adjusts the session gauge.
func (m *Metrics) RecordAuth(event string, success bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !success {
		result = "rejected"
	}
	m.AuthEvents.WithLabelValues(event, result).Inc()
	if !success {
		return
	}
	switch event {
	case "login", "register":
		m.ActiveSessions.Inc()
	case "logout":
		m.ActiveSessions.Dec()
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency keyed by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

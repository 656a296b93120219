package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsIsShared(t *testing.T) {
	if NewMetrics() != NewMetrics() {
		t.Fatal("Expected NewMetrics to return the shared instance")
	}
}

func TestRecordReply(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(m.RepliesTotal.WithLabelValues("project"))
	beforeCSS := testutil.ToFloat64(m.ProgressPoints.WithLabelValues("css"))

	m.RecordReply("project", map[string]int{"html": 5, "css": 5, "js": 5})

	if got := testutil.ToFloat64(m.RepliesTotal.WithLabelValues("project")); got != before+1 {
		t.Errorf("Expected project replies %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(m.ProgressPoints.WithLabelValues("css")); got != beforeCSS+5 {
		t.Errorf("Expected css points %v, got %v", beforeCSS+5, got)
	}
}

func TestRecordAuthAdjustsSessions(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(m.ActiveSessions)

	m.RecordAuth("login", true)
	m.RecordAuth("register", false)
	if got := testutil.ToFloat64(m.ActiveSessions); got != before+1 {
		t.Errorf("Expected %v active sessions, got %v", before+1, got)
	}
	m.RecordAuth("logout", true)
	if got := testutil.ToFloat64(m.ActiveSessions); got != before {
		t.Errorf("Expected %v active sessions, got %v", before, got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordReply("html", map[string]int{"html": 10})
	m.RecordAuth("login", true)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/progress/{topic}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/progress/{topic}", "GET", "418"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/progress/css", nil))

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/progress/{topic}", "GET", "418"))
	if got != before+1 {
		t.Errorf("Expected request counted under route pattern, got %v", got)
	}
}

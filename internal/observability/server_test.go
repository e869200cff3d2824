package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"interview-evaluator-service/internal/observability/metrics"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func TestHandler_Probes(t *testing.T) {
	ready := false
	h := NewHandler(prometheus.NewRegistry(), func() bool { return ready })

	if code, body := get(t, h, "/healthz"); code != http.StatusOK || body != "ok" {
		t.Errorf("healthz: got %d %q", code, body)
	}
	if code, _ := get(t, h, "/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before ready, got %d", code)
	}
	ready = true
	if code, body := get(t, h, "/readyz"); code != http.StatusOK || body != "ready" {
		t.Errorf("readyz: got %d %q", code, body)
	}
}

func TestHandler_NilReadinessIsReady(t *testing.T) {
	h := NewHandler(prometheus.NewRegistry(), nil)
	if code, _ := get(t, h, "/readyz"); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
}

func TestHandler_ExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordSessionStart()

	code, body := get(t, NewHandler(reg, nil), "/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, "interview_evaluator_") {
		t.Errorf("expected service metrics in output, got %q", body)
	}
}

func TestRequestMetrics_LabelsByRoutePattern(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestMetrics(m))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/items/{id}", http.MethodGet, "4xx"))
	if got != 3 {
		t.Errorf("expected 3 requests on the route pattern, got %v", got)
	}
}

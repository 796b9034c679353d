package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/search", "200"))
	if rr := serve(r, "POST", "/v1/search"); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/search", "200"))
	if after-before != 1 {
		t.Errorf("expected one request recorded, got %f", after-before)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("in-flight = %f after the request finished", v)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/index/reindex", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/v1/index/reindex", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	r.Post("/v1/index/clear", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		method, path, status string
	}{
		{"GET", "/v1/index/reindex", "404"},
		{"POST", "/v1/index/reindex", "409"},
		{"POST", "/v1/index/clear", "204"},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			serve(r, tc.method, tc.path)
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status)); v < 1 {
				t.Errorf("expected a %s sample, got %f", tc.status, v)
			}
		})
	}
}

func TestMiddleware_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve(r, "GET", "/v1/items/42")
	serve(r, "GET", "/v1/items/43")

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/items/{id}", "200")); v < 2 {
		t.Errorf("expected both requests under the route pattern, got %f", v)
	}
}

func TestMiddleware_Unmatched(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})

	serve(r, "GET", "/wp-admin.php")

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", routeUnmatched, "404")); v < 1 {
		t.Errorf("expected unmatched sample, got %f", v)
	}
}

func TestMiddleware_SkipsMetricsScrape(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	serve(r, "GET", "/metrics")

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")); v != 0 {
		t.Errorf("scrapes should not be recorded, got %f", v)
	}
}

func TestRegisterHTTPMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
}

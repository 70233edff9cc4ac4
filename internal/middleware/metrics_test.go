package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodgram/gateway/internal/metrics"
)

func TestRouteFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/api/docs/redoc.html", metrics.RouteDocs},
		{"/api/docs/", metrics.RouteDocs},
		{"/api/docs", metrics.RouteAPI},
		{"/api/recipes/1/", metrics.RouteAPI},
		{"/api", metrics.RouteSPA},
		{"/admin/", metrics.RouteAdmin},
		{"/admin", metrics.RouteSPA},
		{"/media/recipes/images/a.png", metrics.RouteMedia},
		{"/", metrics.RouteSPA},
		{"/recipes/5", metrics.RouteSPA},
		{"", metrics.RouteOther},
	}

	for _, tt := range tests {
		if got := RouteFor(tt.path); got != tt.want {
			t.Errorf("RouteFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetrics_RecordsRoute(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewInMemory()
	handler := Metrics(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/media/missing.png", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("PROPFIND", "/media/x", nil))

	if got := recorder.Snapshot().Requests[metrics.RouteMedia]; got != 2 {
		t.Errorf("media requests = %d, want 2", got)
	}
}

func TestMethodLabel(t *testing.T) {
	t.Parallel()

	if got := methodLabel(http.MethodPatch); got != http.MethodPatch {
		t.Errorf("methodLabel(PATCH) = %q", got)
	}
	if got := methodLabel("PROPFIND"); got != "OTHER" {
		t.Errorf("methodLabel(PROPFIND) = %q, want OTHER", got)
	}
}

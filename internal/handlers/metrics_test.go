package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsHandlerReturnsPrometheusHandler(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	handler := h.MetricsHandler()

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "eleanor_") {
		t.Error("Expected eleanor_ metrics in exposition")
	}
}

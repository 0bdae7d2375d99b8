package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHealthHandler(newTestLogger(t), nil)
	r := gin.New()
	r.GET("/healthcheck", h.HealthCheck)

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "ok" {
		t.Fatalf("unexpected body: got=%q want=%q", body, "ok")
	}
}

func TestReadyCheckWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHealthHandler(newTestLogger(t), nil)
	r := gin.New()
	r.GET("/readycheck", h.ReadyCheck)

	req := httptest.NewRequest(http.MethodGet, "/readycheck", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rec.Body.String(), "unavailable") {
		t.Fatalf("expected unavailable body, got %s", rec.Body.String())
	}
}

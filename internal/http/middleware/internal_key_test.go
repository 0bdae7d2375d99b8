package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

func internalRouter(t *testing.T, configuredKey string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	r := gin.New()
	r.POST("/internal/sessions/completed", RequireInternalKey(log, configuredKey), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireInternalKeyMatches(t *testing.T) {
	r := internalRouter(t, "svc-key")

	req := httptest.NewRequest(http.MethodPost, "/internal/sessions/completed", nil)
	req.Header.Set("X-Internal-Key", "svc-key")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
}

func TestRequireInternalKeyRejects(t *testing.T) {
	cases := []struct {
		name      string
		configure string
		present   string
	}{
		{name: "wrong key", configure: "svc-key", present: "other"},
		{name: "missing key", configure: "svc-key", present: ""},
		{name: "unconfigured rejects everything", configure: "", present: "svc-key"},
		{name: "unconfigured and missing", configure: "", present: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := internalRouter(t, tc.configure)

			req := httptest.NewRequest(http.MethodPost, "/internal/sessions/completed", nil)
			if tc.present != "" {
				req.Header.Set("X-Internal-Key", tc.present)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner"
	"github.com/tutoriq/tutoriq-backend/internal/platform/ctxutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// withStudent injects an authenticated learner the way the auth middleware
// would, so handler tests skip token plumbing.
func withStudent(studentID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithStudentData(c.Request.Context(), &ctxutil.StudentData{StudentID: studentID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func TestParseTargetDate(t *testing.T) {
	t.Parallel()

	got, err := parseTargetDate("2026-09-01")
	if err != nil || got == nil {
		t.Fatalf("date-only parse failed: %v", err)
	}
	if got.Year() != 2026 || got.Month() != time.September || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}

	got, err = parseTargetDate("2026-09-01T10:00:00Z")
	if err != nil || got == nil {
		t.Fatalf("rfc3339 parse failed: %v", err)
	}
	if got.Hour() != 10 {
		t.Fatalf("unexpected hour: %v", got)
	}

	got, err = parseTargetDate("  ")
	if err != nil || got != nil {
		t.Fatalf("blank input should yield nil, got %v err %v", got, err)
	}

	if _, err = parseTargetDate("next tuesday"); err == nil {
		t.Fatal("expected error for unparseable date")
	}
}

func TestParseStatusFilter(t *testing.T) {
	t.Parallel()

	got, err := parseStatusFilter("")
	if err != nil || got != nil {
		t.Fatalf("empty filter should yield nil, got %v err %v", got, err)
	}

	got, err = parseStatusFilter("active, paused")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []domain.PlanStatus{domain.PlanStatusActive, domain.PlanStatusPaused}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected statuses: got=%v want=%v", got, want)
	}

	if _, err = parseStatusFilter("ACTIVE,BOGUS"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func planTestRouter(t *testing.T, studentID uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewPlanHandler(newTestLogger(t), planner.Usecases{}, nil)

	r := gin.New()
	api := r.Group("/api")
	if studentID != uuid.Nil {
		api.Use(withStudent(studentID))
	}
	api.POST("/plans", h.CreatePlan)
	api.GET("/plans/:id", h.GetPlan)
	api.POST("/plans/:id/pause", h.PausePlan)
	return r
}

func TestPlanHandlerRejectsUnauthenticated(t *testing.T) {
	r := planTestRouter(t, uuid.Nil)

	req := httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCreatePlanValidatesBody(t *testing.T) {
	r := planTestRouter(t, uuid.New())

	cases := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"goal_id": `},
		{name: "missing goal id", body: `{"weekly_hours": 5}`},
		{name: "bad goal id", body: `{"goal_id": "not-a-uuid", "weekly_hours": 5}`},
		{name: "bad target date", body: `{"goal_id": "` + uuid.NewString() + `", "weekly_hours": 5, "target_date": "someday"}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestPlanRoutesValidatePlanID(t *testing.T) {
	r := planTestRouter(t, uuid.New())

	for _, target := range []string{"/api/plans/not-a-uuid", "/api/plans/not-a-uuid/pause"} {
		target := target
		t.Run(target, func(t *testing.T) {
			method := http.MethodGet
			if strings.HasSuffix(target, "/pause") {
				method = http.MethodPost
			}
			req := httptest.NewRequest(method, target, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

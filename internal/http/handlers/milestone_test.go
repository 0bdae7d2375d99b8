package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/modules/planner"
)

func milestoneTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewMilestoneHandler(newTestLogger(t), planner.Usecases{})

	r := gin.New()
	api := r.Group("/api", withStudent(uuid.New()))
	api.POST("/plans/:id/weeks/:week/assessment", h.StartAssessment)
	api.POST("/plans/:id/weeks/:week/assessment/submit", h.SubmitAssessment)
	return r
}

func TestAssessmentParamsValidation(t *testing.T) {
	r := milestoneTestRouter(t)

	planID := uuid.NewString()
	cases := []struct {
		name   string
		target string
	}{
		{name: "bad plan id", target: "/api/plans/nope/weeks/2/assessment"},
		{name: "non-numeric week", target: "/api/plans/" + planID + "/weeks/two/assessment"},
		{name: "zero week", target: "/api/plans/" + planID + "/weeks/0/assessment"},
		{name: "negative week", target: "/api/plans/" + planID + "/weeks/-3/assessment"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.target, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestSubmitAssessmentValidatesBody(t *testing.T) {
	r := milestoneTestRouter(t)

	target := "/api/plans/" + uuid.NewString() + "/weeks/2/assessment/submit"
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"answers": "not-a-map"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

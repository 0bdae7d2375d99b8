package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/domain"
	"github.com/tutoriq/tutoriq-backend/internal/http/response"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/ctxutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type PlanHandler struct {
	log     *logger.Logger
	planner planner.Usecases
	plans   repos.StudyPlanRepo
}

func NewPlanHandler(log *logger.Logger, plannerUC planner.Usecases, plans repos.StudyPlanRepo) *PlanHandler {
	return &PlanHandler{
		log:     log.With("handler", "PlanHandler"),
		planner: plannerUC,
		plans:   plans,
	}
}

type createPlanRequest struct {
	GoalID      string  `json:"goal_id"`
	WeeklyHours float64 `json:"weekly_hours"`
	// TargetDate accepts YYYY-MM-DD or RFC3339.
	TargetDate string `json:"target_date,omitempty"`
}

// POST /api/plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	sd := ctxutil.GetStudentData(c.Request.Context())
	if sd == nil || sd.StudentID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	goalID, err := uuid.Parse(strings.TrimSpace(req.GoalID))
	if err != nil || goalID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_goal_id", err)
		return
	}
	targetDate, err := parseTargetDate(req.TargetDate)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_target_date", err)
		return
	}

	out, err := h.planner.PlanBuild(c.Request.Context(), planner.PlanBuildInput{
		StudentID:   sd.StudentID,
		GoalID:      goalID,
		WeeklyHours: req.WeeklyHours,
		TargetDate:  targetDate,
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		h.log.Error("CreatePlan failed", "error", err, "student_id", sd.StudentID, "goal_id", goalID)
		response.RespondError(c, http.StatusInternalServerError, "plan_build_failed", err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/plans?status=ACTIVE,PAUSED
func (h *PlanHandler) ListPlans(c *gin.Context) {
	sd := ctxutil.GetStudentData(c.Request.Context())
	if sd == nil || sd.StudentID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	statuses, err := parseStatusFilter(c.Query("status"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_status", err)
		return
	}

	plans, err := h.plans.ListByStudent(dbctx.Context{Ctx: c.Request.Context()}, sd.StudentID, statuses)
	if err != nil {
		h.log.Error("ListPlans failed", "error", err, "student_id", sd.StudentID)
		response.RespondError(c, http.StatusInternalServerError, "load_plans_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"plans": plans})
}

// GET /api/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	sd := ctxutil.GetStudentData(c.Request.Context())
	if sd == nil || sd.StudentID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil || planID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_plan_id", err)
		return
	}

	out, err := h.planner.PlanDetail(c.Request.Context(), planner.PlanDetailInput{
		StudentID: sd.StudentID,
		PlanID:    planID,
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		h.log.Error("GetPlan failed", "error", err, "plan_id", planID)
		response.RespondError(c, http.StatusInternalServerError, "load_plan_failed", err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/plans/:id/pause
func (h *PlanHandler) PausePlan(c *gin.Context) {
	h.transition(c, "PausePlan", h.planner.PlanPause)
}

// POST /api/plans/:id/resume
func (h *PlanHandler) ResumePlan(c *gin.Context) {
	h.transition(c, "ResumePlan", h.planner.PlanResume)
}

// POST /api/plans/:id/abandon
func (h *PlanHandler) AbandonPlan(c *gin.Context) {
	h.transition(c, "AbandonPlan", h.planner.PlanAbandon)
}

func (h *PlanHandler) transition(
	c *gin.Context,
	op string,
	apply func(context.Context, planner.PlanTransitionInput) (*domain.StudyPlan, error),
) {
	sd := ctxutil.GetStudentData(c.Request.Context())
	if sd == nil || sd.StudentID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil || planID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_plan_id", err)
		return
	}

	plan, err := apply(c.Request.Context(), planner.PlanTransitionInput{
		StudentID: sd.StudentID,
		PlanID:    planID,
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		h.log.Error(op+" failed", "error", err, "plan_id", planID)
		response.RespondError(c, http.StatusInternalServerError, "plan_transition_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"plan": plan})
}

func parseTargetDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseStatusFilter(raw string) ([]domain.PlanStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []domain.PlanStatus
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		status := domain.PlanStatus(strings.ToUpper(trimmed))
		switch status {
		case domain.PlanStatusActive, domain.PlanStatusPaused, domain.PlanStatusCompleted, domain.PlanStatusAbandoned:
			out = append(out, status)
		default:
			return nil, fmt.Errorf("unknown status %q", trimmed)
		}
	}
	return out, nil
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/http/response"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/ctxutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type MilestoneHandler struct {
	log     *logger.Logger
	planner planner.Usecases
}

func NewMilestoneHandler(log *logger.Logger, plannerUC planner.Usecases) *MilestoneHandler {
	return &MilestoneHandler{
		log:     log.With("handler", "MilestoneHandler"),
		planner: plannerUC,
	}
}

// POST /api/plans/:id/weeks/:week/assessment
func (h *MilestoneHandler) StartAssessment(c *gin.Context) {
	sd := ctxutil.GetStudentData(c.Request.Context())
	if sd == nil || sd.StudentID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	planID, week, ok := h.assessmentParams(c)
	if !ok {
		return
	}

	out, err := h.planner.MilestoneAssessStart(c.Request.Context(), planner.MilestoneAssessInput{
		StudentID:  sd.StudentID,
		PlanID:     planID,
		WeekNumber: week,
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		h.log.Error("StartAssessment failed", "error", err, "plan_id", planID, "week", week)
		response.RespondError(c, http.StatusInternalServerError, "assessment_start_failed", err)
		return
	}
	response.RespondOK(c, out)
}

type submitAssessmentRequest struct {
	// Answers maps question id to the chosen option label. Unanswered
	// questions score as incorrect.
	Answers map[string]string `json:"answers"`
}

// POST /api/plans/:id/weeks/:week/assessment/submit
func (h *MilestoneHandler) SubmitAssessment(c *gin.Context) {
	sd := ctxutil.GetStudentData(c.Request.Context())
	if sd == nil || sd.StudentID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	planID, week, ok := h.assessmentParams(c)
	if !ok {
		return
	}

	var req submitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	out, err := h.planner.MilestoneSubmit(c.Request.Context(), planner.MilestoneSubmitInput{
		StudentID:  sd.StudentID,
		PlanID:     planID,
		WeekNumber: week,
		Answers:    req.Answers,
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		h.log.Error("SubmitAssessment failed", "error", err, "plan_id", planID, "week", week)
		response.RespondError(c, http.StatusInternalServerError, "assessment_submit_failed", err)
		return
	}
	response.RespondOK(c, out)
}

func (h *MilestoneHandler) assessmentParams(c *gin.Context) (uuid.UUID, int, bool) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil || planID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_plan_id", err)
		return uuid.Nil, 0, false
	}
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		response.RespondError(c, http.StatusBadRequest, "invalid_week_number", err)
		return uuid.Nil, 0, false
	}
	return planID, week, true
}

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/http/response"
	"github.com/tutoriq/tutoriq-backend/internal/modules/planner"
	"github.com/tutoriq/tutoriq-backend/internal/platform/apierr"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type SessionReportHandler struct {
	log     *logger.Logger
	planner planner.Usecases
}

func NewSessionReportHandler(log *logger.Logger, plannerUC planner.Usecases) *SessionReportHandler {
	return &SessionReportHandler{
		log:     log.With("handler", "SessionReportHandler"),
		planner: plannerUC,
	}
}

type sessionCompletedRequest struct {
	StudentID         string `json:"student_id"`
	SessionID         string `json:"session_id"`
	ConceptCode       string `json:"concept_code"`
	DurationSeconds   int    `json:"duration_seconds"`
	QuestionsAnswered int    `json:"questions_answered"`
	QuestionsCorrect  int    `json:"questions_correct"`
	// Completed defaults to true; reporters mark abandoned sessions false.
	Completed  *bool      `json:"completed,omitempty"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	// MasteryProbability is the reporting tutor's post-session estimate.
	MasteryProbability *float64 `json:"mastery_probability,omitempty"`
}

// POST /internal/sessions/completed
func (h *SessionReportHandler) ReportCompleted(c *gin.Context) {
	var req sessionCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	studentID, err := uuid.Parse(strings.TrimSpace(req.StudentID))
	if err != nil || studentID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	out, err := h.planner.SessionCompleted(c.Request.Context(), planner.SessionCompletedInput{
		StudentID:          studentID,
		SessionKey:         req.SessionID,
		ConceptCode:        req.ConceptCode,
		DurationSeconds:    req.DurationSeconds,
		QuestionsAnswered:  req.QuestionsAnswered,
		QuestionsCorrect:   req.QuestionsCorrect,
		Completed:          completed,
		OccurredAt:         req.OccurredAt,
		MasteryProbability: req.MasteryProbability,
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		h.log.Error("ReportCompleted failed", "error", err, "student_id", studentID, "session_id", req.SessionID)
		response.RespondError(c, http.StatusInternalServerError, "session_report_failed", err)
		return
	}
	response.RespondOK(c, out)
}

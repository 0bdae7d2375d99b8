package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/http/response"
	"github.com/tutoriq/tutoriq-backend/internal/platform/dbctx"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type GoalHandler struct {
	log   *logger.Logger
	goals repos.LearningGoalRepo
}

func NewGoalHandler(log *logger.Logger, goals repos.LearningGoalRepo) *GoalHandler {
	return &GoalHandler{
		log:   log.With("handler", "GoalHandler"),
		goals: goals,
	}
}

// GET /api/goals
func (h *GoalHandler) ListGoals(c *gin.Context) {
	goals, err := h.goals.List(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		h.log.Error("ListGoals failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_goals_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"goals": goals})
}

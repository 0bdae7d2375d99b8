package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type HealthHandler struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewHealthHandler(log *logger.Logger, db *gorm.DB) *HealthHandler {
	return &HealthHandler{log: log, db: db}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ReadyCheck reports 503 until Postgres answers. Optional clients never
// gate readiness; their absence only degrades features.
func (h *HealthHandler) ReadyCheck(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "postgres": "missing"})
		return
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		if h.log != nil {
			h.log.Warn("Readiness ping failed", "error", err)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "postgres": "down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "postgres": "up"})
}

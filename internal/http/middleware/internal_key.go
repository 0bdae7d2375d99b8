package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

const headerInternalKey = "X-Internal-Key"

// RequireInternalKey gates the service-to-service surface behind a shared
// key. An empty configured key disables the surface entirely rather than
// leaving it open.
func RequireInternalKey(log *logger.Logger, key string) gin.HandlerFunc {
	configured := []byte(strings.TrimSpace(key))
	if len(configured) == 0 && log != nil {
		log.Warn("internal API key not configured; internal endpoints disabled")
	}
	return func(c *gin.Context) {
		presented := []byte(strings.TrimSpace(c.GetHeader(headerInternalKey)))
		if len(configured) == 0 || len(presented) == 0 ||
			subtle.ConstantTimeCompare(configured, presented) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid internal key", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

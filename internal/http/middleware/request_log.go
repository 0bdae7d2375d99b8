package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutoriq/tutoriq-backend/internal/platform/ctxutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

// RequestLogger writes one structured line per request after the handler
// chain finishes, leveled by status class. Probe and scrape endpoints are
// skipped to keep the log usable.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}
		switch c.Request.URL.Path {
		case "/metrics", "/healthcheck", "/readycheck":
			return
		}

		status := c.Writer.Status()
		fields := requestFields(c, status, time.Since(start))

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func requestFields(c *gin.Context, status int, elapsed time.Duration) []interface{} {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}

	fields := []interface{}{
		"method", c.Request.Method,
		"path", path,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
		"ip", c.ClientIP(),
	}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		if td.TraceID != "" {
			fields = append(fields, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			fields = append(fields, "request_id", td.RequestID)
		}
	}
	if sd := ctxutil.GetStudentData(c.Request.Context()); sd != nil && sd.StudentID != uuid.Nil {
		fields = append(fields, "student_id", sd.StudentID.String())
	}
	return fields
}

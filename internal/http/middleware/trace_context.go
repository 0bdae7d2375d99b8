package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/tutoriq/tutoriq-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext assigns each request a trace id and request id,
// honoring inbound headers and the active otel span before minting new
// ones. Both ids echo back on the response so clients can quote them.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		td := &ctxutil.TraceData{
			TraceID:   inboundTraceID(c),
			RequestID: inboundRequestID(c),
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)
		c.Next()
	}
}

func inboundRequestID(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(headerRequestID)); v != "" {
		return v
	}
	return uuid.New().String()
}

func inboundTraceID(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(headerTraceID)); v != "" {
		return v
	}
	if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.HasTraceID() {
		return spanCtx.TraceID().String()
	}
	return uuid.New().String()
}

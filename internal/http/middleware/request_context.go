package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/threadbot-backend/internal/pkg/ctxutil"
)

// AttachTraceContext stamps every request with a trace id and a request id
// and exposes both as response headers.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		traceID := ""
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}
		requestID := uuid.NewString()

		td := &ctxutil.TraceData{TraceID: traceID, RequestID: requestID}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))

		c.Writer.Header().Set("X-Trace-Id", traceID)
		c.Writer.Header().Set("X-Request-Id", requestID)
		c.Next()
	}
}

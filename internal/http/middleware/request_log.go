package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/threadbot-backend/internal/pkg/ctxutil"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

// RequestLogger logs one line per completed request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	l := log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if c.Writer.Status() >= 500 {
			l.Error("request", fields...)
			return
		}
		l.Info("request", fields...)
	}
}

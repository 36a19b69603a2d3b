package middleware

import (
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/deepresearch-backend/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID attaches an identifier to every request, honoring one supplied
// by the caller.
func RequestID() gin.HandlerFunc {
  return func(c *gin.Context) {
    id := c.GetHeader(RequestIDHeader)
    if id == "" {
      id = uuid.New().String()
    }
    c.Set("request_id", id)
    c.Writer.Header().Set(RequestIDHeader, id)
    c.Next()
  }
}

// RequestLogger logs one line per request with latency and status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
  reqLog := log.With("component", "http")
  return func(c *gin.Context) {
    start := time.Now()
    c.Next()

    reqLog.Info("request",
      "method", c.Request.Method,
      "path", c.Request.URL.Path,
      "status", c.Writer.Status(),
      "latency_ms", time.Since(start).Milliseconds(),
      "request_id", c.GetString("request_id"),
    )
  }
}

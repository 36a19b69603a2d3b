package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/deepresearch-backend/internal/services"
  "github.com/yungbote/deepresearch-backend/internal/shared"
)

type HealthHandler struct {
  health services.HealthService
}

func NewHealthHandler(health services.HealthService) *HealthHandler {
  return &HealthHandler{health: health}
}

// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
  resp, checks := h.health.Check(c.Request.Context())
  status := http.StatusOK
  if resp.Status == shared.HealthStatusUnhealthy {
    status = http.StatusServiceUnavailable
  }
  c.JSON(status, gin.H{
    "status":    resp.Status,
    "version":   resp.Version,
    "timestamp": resp.Timestamp,
    "checks":    checks,
  })
}

// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
  if h.health.Ready(c.Request.Context()) {
    c.JSON(http.StatusOK, gin.H{"status": "ready"})
    return
  }
  c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
}

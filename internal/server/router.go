package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

  "github.com/yungbote/deepresearch-backend/internal/handlers"
  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/middleware"
)

type RouterConfig struct {
  Log             *logger.Logger
  ResearchHandler *handlers.ResearchHandler
  HealthHandler   *handlers.HealthHandler
  CORSOrigins     []string
  ServiceName     string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.New()
  router.Use(gin.Recovery())
  router.Use(middleware.RequestID())
  if cfg.Log != nil {
    router.Use(middleware.RequestLogger(cfg.Log))
  }
  if cfg.ServiceName != "" {
    router.Use(otelgin.Middleware(cfg.ServiceName))
  }

  origins := cfg.CORSOrigins
  if len(origins) == 0 {
    origins = []string{
      "http://localhost:3000",
      "http://localhost:8000",
    }
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
    AllowCredentials: true,
  }))

// ===============
// || Health    ||
// ===============
  router.GET("/health", cfg.HealthHandler.Check)
  router.GET("/health/live", cfg.HealthHandler.Live)
  router.GET("/health/ready", cfg.HealthHandler.Ready)

// ===============
// || Research  ||
// ===============
  api := router.Group("/api")
  {
    api.POST("/research", cfg.ResearchHandler.CreateTask)
    api.GET("/research", cfg.ResearchHandler.ListTasks)
    api.GET("/research/:id", cfg.ResearchHandler.GetTask)
    api.DELETE("/research/:id", cfg.ResearchHandler.DeleteTask)
    api.GET("/research/:id/stream", cfg.ResearchHandler.StreamTask)
  }

  return router
}

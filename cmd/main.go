package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/yungbote/deepresearch-backend/internal/clients/redis"
  "github.com/yungbote/deepresearch-backend/internal/db"
  "github.com/yungbote/deepresearch-backend/internal/handlers"
  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/observability"
  "github.com/yungbote/deepresearch-backend/internal/repos"
  "github.com/yungbote/deepresearch-backend/internal/server"
  "github.com/yungbote/deepresearch-backend/internal/services"
  "github.com/yungbote/deepresearch-backend/internal/sse"
  "github.com/yungbote/deepresearch-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  appVersion := utils.GetEnv("APP_VERSION", "0.1.0", log)
  environment := utils.GetEnv("ENVIRONMENT", "development", log)
  webhookSecret := utils.GetEnv("WEBHOOK_SECRET", "", log)
  corsOrigins := utils.GetEnv("CORS_ORIGINS", "", log)

  // Tracing
  shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: "deep-research-api",
    Environment: environment,
    Version:     appVersion,
  })
  if shutdownTracing != nil {
    defer func() {
      ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
      defer cancel()
      _ = shutdownTracing(ctx)
    }()
  }

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  taskRepo := repos.NewResearchTaskRepo(thePG, log)
  findingRepo := repos.NewResearchFindingRepo(thePG, log)
  inferenceRepo := repos.NewInferenceRepo(thePG, log)
  evalRepo := repos.NewEvalResultRepo(thePG, log)

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log)

  // Optional redis fan-out; without REDIS_ADDR events stay in-process.
  var emitter services.SSEEmitter = &services.HubEmitter{Hub: sseHub}
  var busCheck func(ctx context.Context) error
  if os.Getenv("REDIS_ADDR") != "" {
    sseBus, err := redis.NewSSEBus(log)
    if err != nil {
      log.Warn("Redis SSE bus init failed; falling back to in-process hub", "error", err)
    } else {
      if err := sseBus.StartForwarder(context.Background(), func(m sse.SSEMessage) {
        sseHub.Broadcast(m)
      }); err != nil {
        log.Warn("Redis SSE forwarder failed; falling back to in-process hub", "error", err)
      } else {
        emitter = &services.RedisEmitter{Bus: sseBus}
        busCheck = sseBus.Ping
      }
    }
  }

  // Services
  log.Info("Setting up Services from main...")
  webhookService := services.NewWebhookService(log, webhookSecret)
  notifier := services.NewTaskNotifier(log, emitter, webhookService)
  researchService := services.NewResearchService(thePG, log, taskRepo, findingRepo, inferenceRepo, evalRepo, notifier)
  healthService := services.NewHealthService(thePG, log, appVersion, busCheck)

  // Handlers
  log.Info("Setting up handlers from main...")
  researchHandler := handlers.NewResearchHandler(log, researchService, sseHub)
  healthHandler := handlers.NewHealthHandler(healthService)

  // Router
  log.Info("Setting up router from main...")
  var origins []string
  if corsOrigins != "" {
    for _, o := range strings.Split(corsOrigins, ",") {
      if o = strings.TrimSpace(o); o != "" {
        origins = append(origins, o)
      }
    }
  }
  router := server.NewRouter(server.RouterConfig{
    Log:             log,
    ResearchHandler: researchHandler,
    HealthHandler:   healthHandler,
    CORSOrigins:     origins,
    ServiceName:     "deep-research-api",
  })

  port := utils.GetEnv("PORT", "8000", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}

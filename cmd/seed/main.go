package main

import (
  "context"
  "encoding/json"
  "fmt"
  "os"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/yungbote/deepresearch-backend/internal/db"
  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/repos"
  "github.com/yungbote/deepresearch-backend/internal/shared"
  "github.com/yungbote/deepresearch-backend/internal/types"
)

// Seeds a small fixture set: one completed task with findings, inferences and
// eval scores, one pending task and one failed task.
func main() {
  log, err := logger.New(os.Getenv("LOG_MODE"))
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err := postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  taskRepo := repos.NewResearchTaskRepo(thePG, log)
  findingRepo := repos.NewResearchFindingRepo(thePG, log)
  inferenceRepo := repos.NewInferenceRepo(thePG, log)
  evalRepo := repos.NewEvalResultRepo(thePG, log)

  ctx := context.Background()
  now := time.Now().UTC()

  // Completed task with a full result.
  result := shared.ResearchResult{
    Summary:     "Solid-state batteries are approaching commercial viability, led by sulfide electrolytes.",
    KeyFindings: []string{
      "Sulfide electrolytes reach ionic conductivities above 10 mS/cm at room temperature.",
      "Interface stability with lithium-metal anodes remains the main scaling obstacle.",
    },
    Inferences: []shared.Inference{
      {
        Claim:               "Automotive-grade cells are unlikely before 2028.",
        SupportingCitations: []string{"https://example.com/ssb-roadmap"},
        DegreesOfSeparation: 2,
        Reasoning:           "Pilot lines announced in 2025 need 2-3 years to reach automotive qualification.",
      },
    },
    ReasoningTrace: []shared.ReasoningStep{
      {StepNumber: 1, Action: "search", Input: "solid-state battery electrolyte conductivity", Output: "Found 8 relevant sources", Rationale: "Establish the current state of the art"},
      {StepNumber: 2, Action: "synthesize", Input: "8 sources", Output: "Draft summary", Rationale: "Combine findings into a coherent answer"},
    },
    Citations: []shared.Citation{
      {Title: "Solid-State Battery Roadmap", URL: "https://example.com/ssb-roadmap", Snippet: "Pilot production lines are slated for 2025-2026."},
    },
    ConfidenceScore: 0.82,
  }
  resultJSON, _ := json.Marshal(result)
  started := now.Add(-20 * time.Minute)
  completed := now.Add(-5 * time.Minute)
  completedTask := &types.ResearchTask{
    ID:          uuid.New(),
    Query:       "What is the state of solid-state battery commercialization?",
    Config:      datatypes.JSON([]byte(`{"max_iterations": 5}`)),
    Status:      string(shared.TaskStatusCompleted),
    Result:      datatypes.JSON(resultJSON),
    StartedAt:   &started,
    CompletedAt: &completed,
  }
  if _, err := taskRepo.Create(ctx, nil, completedTask); err != nil {
    log.Error("Failed to seed completed task", "error", err)
    os.Exit(1)
  }

  confidence := 0.9
  if _, err := findingRepo.Create(ctx, nil, &types.ResearchFinding{
    TaskID:     completedTask.ID,
    SubQuery:   "solid-state electrolyte conductivity benchmarks",
    Response:   "Sulfide electrolytes exceed 10 mS/cm; oxides trail below 1 mS/cm.",
    Citations:  datatypes.JSON([]byte(`[{"title":"Solid-State Battery Roadmap","url":"https://example.com/ssb-roadmap","snippet":"Pilot production lines are slated for 2025-2026."}]`)),
    Confidence: &confidence,
  }); err != nil {
    log.Error("Failed to seed finding", "error", err)
    os.Exit(1)
  }

  if _, err := inferenceRepo.Create(ctx, nil, &types.Inference{
    TaskID:              completedTask.ID,
    Claim:               "Automotive-grade cells are unlikely before 2028.",
    SupportingCitations: datatypes.JSON([]byte(`["https://example.com/ssb-roadmap"]`)),
    DegreesOfSeparation: 2,
    Reasoning:           "Pilot lines announced in 2025 need 2-3 years to reach automotive qualification.",
  }); err != nil {
    log.Error("Failed to seed inference", "error", err)
    os.Exit(1)
  }

  scores := map[string]float64{
    types.EvalTypeCitationAccuracy: 0.95,
    types.EvalTypeHallucination:    0.88,
    types.EvalTypeCompleteness:     0.80,
  }
  for evalType, score := range scores {
    s := score
    if _, err := evalRepo.Create(ctx, nil, &types.EvalResult{
      TaskID:   completedTask.ID,
      EvalType: evalType,
      Score:    &s,
    }); err != nil {
      log.Error("Failed to seed eval result", "error", err, "eval_type", evalType)
      os.Exit(1)
    }
  }

  // Pending task, nothing started yet.
  if _, err := taskRepo.Create(ctx, nil, &types.ResearchTask{
    ID:     uuid.New(),
    Query:  "Compare perovskite and silicon tandem solar cell efficiencies",
    Config: datatypes.JSON([]byte(`{"max_iterations": 10}`)),
    Status: string(shared.TaskStatusPending),
  }); err != nil {
    log.Error("Failed to seed pending task", "error", err)
    os.Exit(1)
  }

  // Failed task with an error message.
  failErr := "search provider quota exhausted"
  failStarted := now.Add(-40 * time.Minute)
  failCompleted := now.Add(-38 * time.Minute)
  if _, err := taskRepo.Create(ctx, nil, &types.ResearchTask{
    ID:          uuid.New(),
    Query:       "History of deep-sea mining regulation",
    Config:      datatypes.JSON([]byte(`{"max_iterations": 5}`)),
    Status:      string(shared.TaskStatusFailed),
    Error:       &failErr,
    StartedAt:   &failStarted,
    CompletedAt: &failCompleted,
  }); err != nil {
    log.Error("Failed to seed failed task", "error", err)
    os.Exit(1)
  }

  log.Info("Seed data inserted")
}

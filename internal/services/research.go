package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/repos"
  "github.com/yungbote/deepresearch-backend/internal/shared"
  "github.com/yungbote/deepresearch-backend/internal/types"
)

var (
  ErrTaskNotFound      = errors.New("research task not found")
  ErrInvalidTransition = errors.New("invalid task status transition")
)

// ResearchService owns the task lifecycle. Transitions are monotonic:
// pending -> running -> completed|failed, failure is reachable from pending,
// and nothing leaves a terminal state.
type ResearchService interface {
  CreateTask(ctx context.Context, tx *gorm.DB, req *shared.CreateResearchRequest) (*shared.CreateResearchResponse, error)
  GetTask(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*shared.ResearchTask, error)
  ListTasks(ctx context.Context, tx *gorm.DB, limit, offset int, status string) ([]shared.ResearchTask, error)
  DeleteTask(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

  MarkRunning(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*shared.ResearchTask, error)
  MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, result shared.ResearchResult) (*shared.ResearchTask, error)
  MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errorMessage string, details map[string]any) (*shared.ResearchTask, error)

  AddFinding(ctx context.Context, tx *gorm.DB, id uuid.UUID, subQuery, response string, citations []shared.Citation, confidence *float64) (*types.ResearchFinding, error)
  AddInference(ctx context.Context, tx *gorm.DB, id uuid.UUID, inference shared.Inference) (*types.Inference, error)
  AddEvalResult(ctx context.Context, tx *gorm.DB, id uuid.UUID, evalType string, score *float64, details map[string]any) (*types.EvalResult, error)
  RecordStep(ctx context.Context, tx *gorm.DB, id uuid.UUID, step shared.ReasoningStep) error
}

type researchService struct {
  db           *gorm.DB
  log          *logger.Logger
  taskRepo     repos.ResearchTaskRepo
  findingRepo  repos.ResearchFindingRepo
  inferenceRepo repos.InferenceRepo
  evalRepo     repos.EvalResultRepo
  notifier     TaskNotifier
}

func NewResearchService(
  db *gorm.DB,
  log *logger.Logger,
  taskRepo repos.ResearchTaskRepo,
  findingRepo repos.ResearchFindingRepo,
  inferenceRepo repos.InferenceRepo,
  evalRepo repos.EvalResultRepo,
  notifier TaskNotifier,
) ResearchService {
  return &researchService{
    db:            db,
    log:           log.With("service", "ResearchService"),
    taskRepo:      taskRepo,
    findingRepo:   findingRepo,
    inferenceRepo: inferenceRepo,
    evalRepo:      evalRepo,
    notifier:      notifier,
  }
}

// taskConfig is the shape persisted into research_tasks.config.
type taskConfig struct {
  WebhookURL    string `json:"webhook_url,omitempty"`
  MaxIterations int    `json:"max_iterations"`
}

func (s *researchService) CreateTask(ctx context.Context, tx *gorm.DB, req *shared.CreateResearchRequest) (*shared.CreateResearchResponse, error) {
  if req == nil {
    return nil, fmt.Errorf("nil request")
  }
  req.ApplyDefaults()
  if err := req.Validate(); err != nil {
    return nil, err
  }

  cfg := taskConfig{MaxIterations: req.MaxIterations}
  if req.WebhookURL != nil {
    cfg.WebhookURL = *req.WebhookURL
  }
  cfgJSON, err := json.Marshal(cfg)
  if err != nil {
    return nil, fmt.Errorf("marshal task config: %w", err)
  }

  task := &types.ResearchTask{
    ID:     uuid.New(),
    Query:  req.Query,
    Config: datatypes.JSON(cfgJSON),
    Status: string(shared.TaskStatusPending),
  }
  task, err = s.taskRepo.Create(ctx, tx, task)
  if err != nil {
    return nil, err
  }
  s.log.Info("Research task created", "task_id", task.ID, "max_iterations", cfg.MaxIterations)

  if s.notifier != nil {
    s.notifier.TaskCreated(ctx, task.ID, task.Query, cfg.WebhookURL)
  }

  return &shared.CreateResearchResponse{
    TaskID:    task.ID.String(),
    Status:    shared.TaskStatus(task.Status),
    CreatedAt: task.CreatedAt,
  }, nil
}

func (s *researchService) GetTask(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*shared.ResearchTask, error) {
  task, err := s.taskRepo.GetByID(ctx, tx, id)
  if err != nil {
    return nil, err
  }
  if task == nil {
    return nil, ErrTaskNotFound
  }
  wire, err := taskToWire(task)
  if err != nil {
    return nil, err
  }
  return &wire, nil
}

func (s *researchService) ListTasks(ctx context.Context, tx *gorm.DB, limit, offset int, status string) ([]shared.ResearchTask, error) {
  if status != "" && !shared.TaskStatus(status).Valid() {
    return nil, fmt.Errorf("invalid status filter %q", status)
  }
  tasks, err := s.taskRepo.List(ctx, tx, limit, offset, status)
  if err != nil {
    return nil, err
  }
  out := make([]shared.ResearchTask, 0, len(tasks))
  for _, t := range tasks {
    wire, err := taskToWire(t)
    if err != nil {
      return nil, err
    }
    out = append(out, wire)
  }
  return out, nil
}

func (s *researchService) DeleteTask(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  task, err := s.taskRepo.GetByID(ctx, tx, id)
  if err != nil {
    return err
  }
  if task == nil {
    return ErrTaskNotFound
  }
  return s.taskRepo.Delete(ctx, tx, id)
}

func (s *researchService) MarkRunning(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*shared.ResearchTask, error) {
  task, err := s.requireTask(ctx, tx, id)
  if err != nil {
    return nil, err
  }
  current := shared.TaskStatus(task.Status)
  if current.Terminal() {
    return nil, fmt.Errorf("%w: %s -> running", ErrInvalidTransition, current)
  }
  // running -> running is a no-op; started_at stays at the first transition
  updated, err := s.taskRepo.UpdateStatus(ctx, tx, id, shared.TaskStatusRunning, nil)
  if err != nil {
    return nil, err
  }
  if current == shared.TaskStatusPending && s.notifier != nil {
    s.notifier.TaskStarted(ctx, id, webhookURLFromTask(updated))
  }
  wire, err := taskToWire(updated)
  if err != nil {
    return nil, err
  }
  return &wire, nil
}

func (s *researchService) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, result shared.ResearchResult) (*shared.ResearchTask, error) {
  if err := result.Validate(); err != nil {
    return nil, err
  }
  task, err := s.requireTask(ctx, tx, id)
  if err != nil {
    return nil, err
  }
  current := shared.TaskStatus(task.Status)
  if current != shared.TaskStatusRunning {
    return nil, fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, current)
  }

  resultJSON, err := json.Marshal(result)
  if err != nil {
    return nil, fmt.Errorf("marshal result: %w", err)
  }
  var traceJSON datatypes.JSON
  if len(result.ReasoningTrace) > 0 {
    raw, err := json.Marshal(map[string]any{"steps": result.ReasoningTrace})
    if err != nil {
      return nil, fmt.Errorf("marshal reasoning trace: %w", err)
    }
    traceJSON = datatypes.JSON(raw)
  }

  updated, err := s.taskRepo.SaveResult(ctx, tx, id, datatypes.JSON(resultJSON), traceJSON)
  if err != nil {
    return nil, err
  }
  if s.notifier != nil {
    s.notifier.TaskCompleted(ctx, id, result, webhookURLFromTask(updated))
  }
  wire, err := taskToWire(updated)
  if err != nil {
    return nil, err
  }
  return &wire, nil
}

func (s *researchService) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, errorMessage string, details map[string]any) (*shared.ResearchTask, error) {
  task, err := s.requireTask(ctx, tx, id)
  if err != nil {
    return nil, err
  }
  current := shared.TaskStatus(task.Status)
  if current.Terminal() {
    return nil, fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, current)
  }
  if errorMessage == "" {
    errorMessage = "research task failed"
  }

  updated, err := s.taskRepo.UpdateStatus(ctx, tx, id, shared.TaskStatusFailed, &errorMessage)
  if err != nil {
    return nil, err
  }
  if s.notifier != nil {
    s.notifier.TaskFailed(ctx, id, errorMessage, details, webhookURLFromTask(updated))
  }
  wire, err := taskToWire(updated)
  if err != nil {
    return nil, err
  }
  return &wire, nil
}

func (s *researchService) AddFinding(ctx context.Context, tx *gorm.DB, id uuid.UUID, subQuery, response string, citations []shared.Citation, confidence *float64) (*types.ResearchFinding, error) {
  if subQuery == "" || response == "" {
    return nil, fmt.Errorf("finding requires sub_query and response")
  }
  if confidence != nil && (*confidence < 0.0 || *confidence > 1.0) {
    return nil, fmt.Errorf("confidence %v out of range [0,1]", *confidence)
  }
  if _, err := s.requireTask(ctx, tx, id); err != nil {
    return nil, err
  }
  citationsJSON, err := json.Marshal(citations)
  if err != nil {
    return nil, fmt.Errorf("marshal citations: %w", err)
  }
  return s.findingRepo.Create(ctx, tx, &types.ResearchFinding{
    TaskID:     id,
    SubQuery:   subQuery,
    Response:   response,
    Citations:  datatypes.JSON(citationsJSON),
    Confidence: confidence,
  })
}

func (s *researchService) AddInference(ctx context.Context, tx *gorm.DB, id uuid.UUID, inference shared.Inference) (*types.Inference, error) {
  inference.ApplyDefaults()
  if err := inference.Validate(); err != nil {
    return nil, err
  }
  if _, err := s.requireTask(ctx, tx, id); err != nil {
    return nil, err
  }
  citationsJSON, err := json.Marshal(inference.SupportingCitations)
  if err != nil {
    return nil, fmt.Errorf("marshal supporting citations: %w", err)
  }
  return s.inferenceRepo.Create(ctx, tx, &types.Inference{
    TaskID:              id,
    Claim:               inference.Claim,
    SupportingCitations: datatypes.JSON(citationsJSON),
    DegreesOfSeparation: inference.DegreesOfSeparation,
    Reasoning:           inference.Reasoning,
  })
}

func (s *researchService) AddEvalResult(ctx context.Context, tx *gorm.DB, id uuid.UUID, evalType string, score *float64, details map[string]any) (*types.EvalResult, error) {
  if evalType == "" {
    return nil, fmt.Errorf("eval result requires eval_type")
  }
  if score != nil && (*score < 0.0 || *score > 1.0) {
    return nil, fmt.Errorf("score %v out of range [0,1]", *score)
  }
  if _, err := s.requireTask(ctx, tx, id); err != nil {
    return nil, err
  }
  var detailsJSON datatypes.JSON
  if details != nil {
    raw, err := json.Marshal(details)
    if err != nil {
      return nil, fmt.Errorf("marshal details: %w", err)
    }
    detailsJSON = datatypes.JSON(raw)
  }
  return s.evalRepo.Create(ctx, tx, &types.EvalResult{
    TaskID:   id,
    EvalType: evalType,
    Score:    score,
    Details:  detailsJSON,
  })
}

// RecordStep only notifies; the full trace is persisted with the result.
func (s *researchService) RecordStep(ctx context.Context, tx *gorm.DB, id uuid.UUID, step shared.ReasoningStep) error {
  if err := step.Validate(); err != nil {
    return err
  }
  task, err := s.requireTask(ctx, tx, id)
  if err != nil {
    return err
  }
  if shared.TaskStatus(task.Status) != shared.TaskStatusRunning {
    return fmt.Errorf("%w: step on %s task", ErrInvalidTransition, task.Status)
  }
  if s.notifier != nil {
    s.notifier.StepCompleted(ctx, id, step, webhookURLFromTask(task))
  }
  return nil
}

func (s *researchService) requireTask(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ResearchTask, error) {
  task, err := s.taskRepo.GetByID(ctx, tx, id)
  if err != nil {
    return nil, err
  }
  if task == nil {
    return nil, ErrTaskNotFound
  }
  return task, nil
}

func webhookURLFromTask(task *types.ResearchTask) string {
  if task == nil || len(task.Config) == 0 {
    return ""
  }
  var cfg taskConfig
  if err := json.Unmarshal(task.Config, &cfg); err != nil {
    return ""
  }
  return cfg.WebhookURL
}

// taskToWire maps a persisted row onto the shared wire shape, keeping the
// null distinction on started_at/completed_at and on the result itself.
func taskToWire(task *types.ResearchTask) (shared.ResearchTask, error) {
  wire := shared.ResearchTask{
    ID:          task.ID.String(),
    Query:       task.Query,
    Status:      shared.TaskStatus(task.Status),
    CreatedAt:   task.CreatedAt,
    StartedAt:   task.StartedAt,
    CompletedAt: task.CompletedAt,
  }
  if task.Error != nil && *task.Error != "" {
    wire.ErrorMessage = task.Error
  }
  if len(task.Result) > 0 {
    var result shared.ResearchResult
    if err := json.Unmarshal(task.Result, &result); err != nil {
      return shared.ResearchTask{}, fmt.Errorf("unmarshal stored result: %w", err)
    }
    wire.Result = &result
  }
  return wire, nil
}

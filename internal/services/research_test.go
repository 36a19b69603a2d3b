package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/deepresearch-backend/internal/logger"
	"github.com/yungbote/deepresearch-backend/internal/shared"
	"github.com/yungbote/deepresearch-backend/internal/types"
)

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*types.ResearchTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[uuid.UUID]*types.ResearchTask{}}
}

func (r *fakeTaskRepo) Create(ctx context.Context, tx *gorm.DB, task *types.ResearchTask) (*types.ResearchTask, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	cp := *task
	r.tasks[task.ID] = &cp
	return task, nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ResearchTask, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *task
	return &cp, nil
}

func (r *fakeTaskRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int, status string) ([]*types.ResearchTask, error) {
	var out []*types.ResearchTask
	for _, t := range r.tasks {
		if status == "" || t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status shared.TaskStatus, errMsg *string) (*types.ResearchTask, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	now := time.Now().UTC()
	task.Status = string(status)
	if status == shared.TaskStatusRunning && task.StartedAt == nil {
		task.StartedAt = &now
	}
	if status.Terminal() {
		task.CompletedAt = &now
		if errMsg != nil {
			task.Error = errMsg
		}
	}
	cp := *task
	return &cp, nil
}

func (r *fakeTaskRepo) SaveResult(ctx context.Context, tx *gorm.DB, id uuid.UUID, result, reasoningTrace datatypes.JSON) (*types.ResearchTask, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	now := time.Now().UTC()
	task.Result = result
	task.ReasoningTrace = reasoningTrace
	task.Status = string(shared.TaskStatusCompleted)
	task.CompletedAt = &now
	cp := *task
	return &cp, nil
}

func (r *fakeTaskRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(r.tasks, id)
	return nil
}

type fakeFindingRepo struct {
	created []*types.ResearchFinding
}

func (r *fakeFindingRepo) Create(ctx context.Context, tx *gorm.DB, finding *types.ResearchFinding) (*types.ResearchFinding, error) {
	if finding.ID == uuid.Nil {
		finding.ID = uuid.New()
	}
	r.created = append(r.created, finding)
	return finding, nil
}

func (r *fakeFindingRepo) ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.ResearchFinding, error) {
	return r.created, nil
}

type fakeInferenceRepo struct {
	created []*types.Inference
}

func (r *fakeInferenceRepo) Create(ctx context.Context, tx *gorm.DB, inference *types.Inference) (*types.Inference, error) {
	if inference.ID == uuid.Nil {
		inference.ID = uuid.New()
	}
	r.created = append(r.created, inference)
	return inference, nil
}

func (r *fakeInferenceRepo) ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.Inference, error) {
	return r.created, nil
}

type fakeEvalRepo struct {
	created []*types.EvalResult
}

func (r *fakeEvalRepo) Create(ctx context.Context, tx *gorm.DB, result *types.EvalResult) (*types.EvalResult, error) {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	r.created = append(r.created, result)
	return result, nil
}

func (r *fakeEvalRepo) ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.EvalResult, error) {
	return r.created, nil
}

func (r *fakeEvalRepo) ListByTaskAndType(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, evalType string) ([]*types.EvalResult, error) {
	return r.created, nil
}

type notifierCall struct {
	kind       string
	taskID     uuid.UUID
	webhookURL string
}

type fakeNotifier struct {
	calls []notifierCall
}

func (n *fakeNotifier) TaskCreated(ctx context.Context, taskID uuid.UUID, query string, webhookURL string) {
	n.calls = append(n.calls, notifierCall{kind: "created", taskID: taskID, webhookURL: webhookURL})
}
func (n *fakeNotifier) TaskStarted(ctx context.Context, taskID uuid.UUID, webhookURL string) {
	n.calls = append(n.calls, notifierCall{kind: "started", taskID: taskID, webhookURL: webhookURL})
}
func (n *fakeNotifier) StepCompleted(ctx context.Context, taskID uuid.UUID, step shared.ReasoningStep, webhookURL string) {
	n.calls = append(n.calls, notifierCall{kind: "step", taskID: taskID, webhookURL: webhookURL})
}
func (n *fakeNotifier) TaskCompleted(ctx context.Context, taskID uuid.UUID, result shared.ResearchResult, webhookURL string) {
	n.calls = append(n.calls, notifierCall{kind: "completed", taskID: taskID, webhookURL: webhookURL})
}
func (n *fakeNotifier) TaskFailed(ctx context.Context, taskID uuid.UUID, errorMessage string, details map[string]any, webhookURL string) {
	n.calls = append(n.calls, notifierCall{kind: "failed", taskID: taskID, webhookURL: webhookURL})
}

func (n *fakeNotifier) last(t *testing.T) notifierCall {
	t.Helper()
	if len(n.calls) == 0 {
		t.Fatalf("no notifier calls recorded")
	}
	return n.calls[len(n.calls)-1]
}

func newTestService(t *testing.T) (ResearchService, *fakeTaskRepo, *fakeInferenceRepo, *fakeNotifier) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	taskRepo := newFakeTaskRepo()
	inferenceRepo := &fakeInferenceRepo{}
	notifier := &fakeNotifier{}
	svc := NewResearchService(nil, log, taskRepo, &fakeFindingRepo{}, inferenceRepo, &fakeEvalRepo{}, notifier)
	return svc, taskRepo, inferenceRepo, notifier
}

func TestCreateTaskStoresConfigAndNotifies(t *testing.T) {
	svc, taskRepo, _, notifier := newTestService(t)

	hook := "https://example.com/hook"
	resp, err := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{
		Query:      "what happened to the dinosaurs",
		WebhookURL: &hook,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if resp.Status != shared.TaskStatusPending {
		t.Fatalf("initial status: want=pending got=%s", resp.Status)
	}

	id, err := uuid.Parse(resp.TaskID)
	if err != nil {
		t.Fatalf("task id not a uuid: %v", err)
	}
	stored := taskRepo.tasks[id]
	if stored == nil {
		t.Fatalf("task not persisted")
	}
	var cfg map[string]any
	if err := json.Unmarshal(stored.Config, &cfg); err != nil {
		t.Fatalf("config unmarshal: %v", err)
	}
	if cfg["webhook_url"] != hook {
		t.Fatalf("config webhook_url: want=%q got=%v", hook, cfg["webhook_url"])
	}
	if cfg["max_iterations"] != float64(shared.DefaultMaxIterations) {
		t.Fatalf("config max_iterations: want=%d got=%v", shared.DefaultMaxIterations, cfg["max_iterations"])
	}

	call := notifier.last(t)
	if call.kind != "created" || call.taskID != id || call.webhookURL != hook {
		t.Fatalf("notifier call: %+v", call)
	}
}

func TestCreateTaskRejectsInvalidRequest(t *testing.T) {
	svc, _, _, notifier := newTestService(t)

	if _, err := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: ""}); err == nil {
		t.Fatalf("empty query: want error")
	}
	if _, err := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q", MaxIterations: 99}); err == nil {
		t.Fatalf("max_iterations=99: want error")
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("rejected requests must not notify: %+v", notifier.calls)
	}
}

func TestMarkRunningIsMonotonic(t *testing.T) {
	svc, taskRepo, _, notifier := newTestService(t)
	resp, err := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	id := uuid.MustParse(resp.TaskID)

	wire, err := svc.MarkRunning(context.Background(), nil, id)
	if err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if wire.Status != shared.TaskStatusRunning || wire.StartedAt == nil {
		t.Fatalf("after MarkRunning: status=%s started_at=%v", wire.Status, wire.StartedAt)
	}
	if call := notifier.last(t); call.kind != "started" {
		t.Fatalf("notifier call: want started got %s", call.kind)
	}
	firstStart := *taskRepo.tasks[id].StartedAt

	// Second MarkRunning is a no-op: no new event, started_at untouched.
	calls := len(notifier.calls)
	if _, err := svc.MarkRunning(context.Background(), nil, id); err != nil {
		t.Fatalf("repeat MarkRunning: %v", err)
	}
	if len(notifier.calls) != calls {
		t.Fatalf("repeat MarkRunning emitted an event")
	}
	if !taskRepo.tasks[id].StartedAt.Equal(firstStart) {
		t.Fatalf("started_at reset on repeat MarkRunning")
	}
}

func TestTerminalStatesAreSticky(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	resp, err := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	id := uuid.MustParse(resp.TaskID)

	if _, err := svc.MarkRunning(context.Background(), nil, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if _, err := svc.MarkCompleted(context.Background(), nil, id, shared.ResearchResult{Summary: "done", ConfidenceScore: 0.5}); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	if _, err := svc.MarkRunning(context.Background(), nil, id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed -> running: want ErrInvalidTransition got %v", err)
	}
	if _, err := svc.MarkFailed(context.Background(), nil, id, "late failure", nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed -> failed: want ErrInvalidTransition got %v", err)
	}
}

func TestMarkCompletedRequiresRunning(t *testing.T) {
	svc, taskRepo, _, notifier := newTestService(t)
	resp, err := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	id := uuid.MustParse(resp.TaskID)

	result := shared.ResearchResult{Summary: "done", ConfidenceScore: 0.9}
	if _, err := svc.MarkCompleted(context.Background(), nil, id, result); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> completed: want ErrInvalidTransition got %v", err)
	}

	if _, err := svc.MarkRunning(context.Background(), nil, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	wire, err := svc.MarkCompleted(context.Background(), nil, id, result)
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if wire.Status != shared.TaskStatusCompleted || wire.CompletedAt == nil {
		t.Fatalf("after MarkCompleted: status=%s completed_at=%v", wire.Status, wire.CompletedAt)
	}
	if wire.Result == nil || wire.Result.Summary != "done" {
		t.Fatalf("result not round-tripped: %+v", wire.Result)
	}
	if len(taskRepo.tasks[id].Result) == 0 {
		t.Fatalf("result not persisted")
	}
	if call := notifier.last(t); call.kind != "completed" {
		t.Fatalf("notifier call: want completed got %s", call.kind)
	}
}

func TestMarkCompletedRejectsInvalidResult(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	resp, _ := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	id := uuid.MustParse(resp.TaskID)
	if _, err := svc.MarkRunning(context.Background(), nil, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if _, err := svc.MarkCompleted(context.Background(), nil, id, shared.ResearchResult{Summary: "s", ConfidenceScore: 1.2}); err == nil {
		t.Fatalf("confidence 1.2: want error")
	}
}

func TestMarkFailedFromPending(t *testing.T) {
	svc, _, _, notifier := newTestService(t)
	resp, _ := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	id := uuid.MustParse(resp.TaskID)

	wire, err := svc.MarkFailed(context.Background(), nil, id, "never started", nil)
	if err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if wire.Status != shared.TaskStatusFailed {
		t.Fatalf("status: want=failed got=%s", wire.Status)
	}
	if wire.ErrorMessage == nil || *wire.ErrorMessage != "never started" {
		t.Fatalf("error_message: %v", wire.ErrorMessage)
	}
	if wire.StartedAt != nil {
		t.Fatalf("failed-from-pending must keep started_at null")
	}
	if call := notifier.last(t); call.kind != "failed" {
		t.Fatalf("notifier call: want failed got %s", call.kind)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if _, err := svc.GetTask(context.Background(), nil, uuid.New()); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("want ErrTaskNotFound got %v", err)
	}
	if err := svc.DeleteTask(context.Background(), nil, uuid.New()); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("delete: want ErrTaskNotFound got %v", err)
	}
}

func TestAddInferenceBounds(t *testing.T) {
	svc, _, inferenceRepo, _ := newTestService(t)
	resp, _ := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	id := uuid.MustParse(resp.TaskID)

	// Degrees left unset defaults to 1.
	created, err := svc.AddInference(context.Background(), nil, id, shared.Inference{Claim: "c", Reasoning: "r"})
	if err != nil {
		t.Fatalf("AddInference: %v", err)
	}
	if created.DegreesOfSeparation != 1 {
		t.Fatalf("default degrees: want=1 got=%d", created.DegreesOfSeparation)
	}

	if _, err := svc.AddInference(context.Background(), nil, id, shared.Inference{Claim: "c", Reasoning: "r", DegreesOfSeparation: -2}); err == nil {
		t.Fatalf("degrees=-2: want error")
	}
	if len(inferenceRepo.created) != 1 {
		t.Fatalf("rejected inference was persisted")
	}
}

func TestAddFindingConfidenceBounds(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	resp, _ := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	id := uuid.MustParse(resp.TaskID)

	bad := 1.2
	if _, err := svc.AddFinding(context.Background(), nil, id, "sub", "resp", nil, &bad); err == nil {
		t.Fatalf("confidence 1.2: want error")
	}
	good := 0.4
	if _, err := svc.AddFinding(context.Background(), nil, id, "sub", "resp", nil, &good); err != nil {
		t.Fatalf("AddFinding: %v", err)
	}
	if _, err := svc.AddFinding(context.Background(), nil, id, "sub", "resp", nil, nil); err != nil {
		t.Fatalf("nil confidence must be allowed: %v", err)
	}
}

func TestAddEvalResultScoreBounds(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	resp, _ := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	id := uuid.MustParse(resp.TaskID)

	bad := -0.5
	if _, err := svc.AddEvalResult(context.Background(), nil, id, types.EvalTypeHallucination, &bad, nil); err == nil {
		t.Fatalf("score -0.5: want error")
	}
	if _, err := svc.AddEvalResult(context.Background(), nil, id, "", nil, nil); err == nil {
		t.Fatalf("empty eval_type: want error")
	}
	good := 0.75
	if _, err := svc.AddEvalResult(context.Background(), nil, id, types.EvalTypeHallucination, &good, map[string]any{"judge": "v1"}); err != nil {
		t.Fatalf("AddEvalResult: %v", err)
	}
}

func TestRecordStepRequiresRunning(t *testing.T) {
	svc, _, _, notifier := newTestService(t)
	resp, _ := svc.CreateTask(context.Background(), nil, &shared.CreateResearchRequest{Query: "q"})
	id := uuid.MustParse(resp.TaskID)

	step := shared.ReasoningStep{StepNumber: 1, Action: "search", Input: "a", Output: "b", Rationale: "c"}
	if err := svc.RecordStep(context.Background(), nil, id, step); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("step on pending task: want ErrInvalidTransition got %v", err)
	}

	if _, err := svc.MarkRunning(context.Background(), nil, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := svc.RecordStep(context.Background(), nil, id, step); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}
	if call := notifier.last(t); call.kind != "step" {
		t.Fatalf("notifier call: want step got %s", call.kind)
	}
}

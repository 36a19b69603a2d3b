package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/shared"
  "github.com/yungbote/deepresearch-backend/internal/types"
)

type ResearchTaskRepo interface {
  Create(ctx context.Context, tx *gorm.DB, task *types.ResearchTask) (*types.ResearchTask, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ResearchTask, error)
  List(ctx context.Context, tx *gorm.DB, limit, offset int, status string) ([]*types.ResearchTask, error)

  // UpdateStatus applies the timestamp bookkeeping for a transition:
  // running sets started_at once, completed/failed set completed_at and the
  // optional error message. Transition legality is the service's job.
  UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status shared.TaskStatus, errMsg *string) (*types.ResearchTask, error)

  // SaveResult stores the result payload and marks the task completed.
  SaveResult(ctx context.Context, tx *gorm.DB, id uuid.UUID, result, reasoningTrace datatypes.JSON) (*types.ResearchTask, error)

  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
  Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type researchTaskRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewResearchTaskRepo(db *gorm.DB, baseLog *logger.Logger) ResearchTaskRepo {
  repoLog := baseLog.With("repo", "ResearchTaskRepo")
  return &researchTaskRepo{db: db, log: repoLog}
}

func (r *researchTaskRepo) Create(ctx context.Context, tx *gorm.DB, task *types.ResearchTask) (*types.ResearchTask, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if task == nil {
    return nil, errors.New("nil task")
  }
  if task.ID == uuid.Nil {
    task.ID = uuid.New()
  }
  if task.Status == "" {
    task.Status = string(shared.TaskStatusPending)
  }
  if err := transaction.WithContext(ctx).Create(task).Error; err != nil {
    return nil, err
  }
  return task, nil
}

func (r *researchTaskRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ResearchTask, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil, nil
  }
  var task types.ResearchTask
  err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&task).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &task, nil
}

func (r *researchTaskRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int, status string) ([]*types.ResearchTask, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if limit <= 0 {
    limit = 20
  }
  if offset < 0 {
    offset = 0
  }
  q := transaction.WithContext(ctx).
    Model(&types.ResearchTask{}).
    Order("created_at DESC")
  if status != "" {
    q = q.Where("status = ?", status)
  }
  var results []*types.ResearchTask
  if err := q.Limit(limit).Offset(offset).Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *researchTaskRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status shared.TaskStatus, errMsg *string) (*types.ResearchTask, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  task, err := r.GetByID(ctx, transaction, id)
  if err != nil || task == nil {
    return nil, err
  }

  now := time.Now().UTC()
  updates := map[string]interface{}{"status": string(status)}
  if status == shared.TaskStatusRunning && task.StartedAt == nil {
    updates["started_at"] = now
  }
  if status.Terminal() {
    updates["completed_at"] = now
    if errMsg != nil {
      updates["error"] = *errMsg
    }
  }

  if err := transaction.WithContext(ctx).
    Model(&types.ResearchTask{}).
    Where("id = ?", id).
    Updates(updates).Error; err != nil {
    return nil, err
  }
  return r.GetByID(ctx, transaction, id)
}

func (r *researchTaskRepo) SaveResult(ctx context.Context, tx *gorm.DB, id uuid.UUID, result, reasoningTrace datatypes.JSON) (*types.ResearchTask, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  task, err := r.GetByID(ctx, transaction, id)
  if err != nil || task == nil {
    return nil, err
  }

  updates := map[string]interface{}{
    "result":       result,
    "status":       string(shared.TaskStatusCompleted),
    "completed_at": time.Now().UTC(),
  }
  if reasoningTrace != nil {
    updates["reasoning_trace"] = reasoningTrace
  }
  if err := transaction.WithContext(ctx).
    Model(&types.ResearchTask{}).
    Where("id = ?", id).
    Updates(updates).Error; err != nil {
    return nil, err
  }
  return r.GetByID(ctx, transaction, id)
}

func (r *researchTaskRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil || len(updates) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Model(&types.ResearchTask{}).
    Where("id = ?", id).
    Updates(updates).Error
}

// Delete removes the task row; findings, inferences and eval results follow
// via the ON DELETE CASCADE foreign keys.
func (r *researchTaskRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil
  }
  return transaction.WithContext(ctx).
    Where("id = ?", id).
    Delete(&types.ResearchTask{}).Error
}

package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/types"
)

type EvalResultRepo interface {
  Create(ctx context.Context, tx *gorm.DB, result *types.EvalResult) (*types.EvalResult, error)
  ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.EvalResult, error)
  ListByTaskAndType(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, evalType string) ([]*types.EvalResult, error)
}

type evalResultRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewEvalResultRepo(db *gorm.DB, baseLog *logger.Logger) EvalResultRepo {
  repoLog := baseLog.With("repo", "EvalResultRepo")
  return &evalResultRepo{db: db, log: repoLog}
}

func (r *evalResultRepo) Create(ctx context.Context, tx *gorm.DB, result *types.EvalResult) (*types.EvalResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if result == nil {
    return nil, errors.New("nil eval result")
  }
  if result.ID == uuid.Nil {
    result.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(result).Error; err != nil {
    return nil, err
  }
  return result, nil
}

func (r *evalResultRepo) ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.EvalResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.EvalResult
  if taskID == uuid.Nil {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("task_id = ?", taskID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *evalResultRepo) ListByTaskAndType(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, evalType string) ([]*types.EvalResult, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.EvalResult
  if taskID == uuid.Nil || evalType == "" {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("task_id = ? AND eval_type = ?", taskID, evalType).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

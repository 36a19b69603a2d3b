package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/types"
)

type InferenceRepo interface {
  Create(ctx context.Context, tx *gorm.DB, inference *types.Inference) (*types.Inference, error)
  ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.Inference, error)
}

type inferenceRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewInferenceRepo(db *gorm.DB, baseLog *logger.Logger) InferenceRepo {
  repoLog := baseLog.With("repo", "InferenceRepo")
  return &inferenceRepo{db: db, log: repoLog}
}

func (r *inferenceRepo) Create(ctx context.Context, tx *gorm.DB, inference *types.Inference) (*types.Inference, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if inference == nil {
    return nil, errors.New("nil inference")
  }
  if inference.ID == uuid.Nil {
    inference.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(inference).Error; err != nil {
    return nil, err
  }
  return inference, nil
}

func (r *inferenceRepo) ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.Inference, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Inference
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

package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/types"
)

type ResearchFindingRepo interface {
  Create(ctx context.Context, tx *gorm.DB, finding *types.ResearchFinding) (*types.ResearchFinding, error)
  ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.ResearchFinding, error)
}

type researchFindingRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewResearchFindingRepo(db *gorm.DB, baseLog *logger.Logger) ResearchFindingRepo {
  repoLog := baseLog.With("repo", "ResearchFindingRepo")
  return &researchFindingRepo{db: db, log: repoLog}
}

func (r *researchFindingRepo) Create(ctx context.Context, tx *gorm.DB, finding *types.ResearchFinding) (*types.ResearchFinding, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if finding == nil {
    return nil, errors.New("nil finding")
  }
  if finding.ID == uuid.Nil {
    finding.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(finding).Error; err != nil {
    return nil, err
  }
  return finding, nil
}

func (r *researchFindingRepo) ListByTaskID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*types.ResearchFinding, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.ResearchFinding
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

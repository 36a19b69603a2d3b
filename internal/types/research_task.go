package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type ResearchTask struct {
  ID             uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Query          string          `gorm:"column:query;type:text;not null" json:"query"`
  Config         datatypes.JSON  `gorm:"column:config;type:jsonb" json:"config"`
  Status         string          `gorm:"column:status;not null;default:'pending';index" json:"status"` // pending|running|completed|failed
  Result         datatypes.JSON  `gorm:"column:result;type:jsonb" json:"result,omitempty"`
  ReasoningTrace datatypes.JSON  `gorm:"column:reasoning_trace;type:jsonb" json:"reasoning_trace,omitempty"`
  Error          *string         `gorm:"column:error;type:text" json:"error,omitempty"`
  CreatedAt      time.Time       `gorm:"not null;default:now();index" json:"created_at"`
  StartedAt      *time.Time      `gorm:"column:started_at" json:"started_at,omitempty"`
  CompletedAt    *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
  Metadata       datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (ResearchTask) TableName() string {
  return "research_tasks"
}

package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type ResearchFinding struct {
  ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  TaskID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"task_id"`
  Task       *ResearchTask  `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaskID;references:ID" json:"task,omitempty"`
  SubQuery   string         `gorm:"column:sub_query;type:text;not null" json:"sub_query"`
  Response   string         `gorm:"column:response;type:text;not null" json:"response"`
  Citations  datatypes.JSON `gorm:"column:citations;type:jsonb" json:"citations"`
  Confidence *float64       `gorm:"column:confidence" json:"confidence,omitempty"` // null or [0,1]
  CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ResearchFinding) TableName() string {
  return "research_findings"
}

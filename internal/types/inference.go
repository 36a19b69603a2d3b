package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type Inference struct {
  ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  TaskID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"task_id"`
  Task                *ResearchTask  `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaskID;references:ID" json:"task,omitempty"`
  Claim               string         `gorm:"column:claim;type:text;not null" json:"claim"`
  SupportingCitations datatypes.JSON `gorm:"column:supporting_citations;type:jsonb" json:"supporting_citations"`
  DegreesOfSeparation int            `gorm:"column:degrees_of_separation;not null;index" json:"degrees_of_separation"` // >= 1
  Reasoning           string         `gorm:"column:reasoning;type:text;not null" json:"reasoning"`
  CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Inference) TableName() string {
  return "inferences"
}

package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

// Evaluation axes scored against a completed task.
const (
  EvalTypeReasoningQuality  = "reasoning_quality"
  EvalTypeHallucination     = "hallucination"
  EvalTypeCitationAccuracy  = "citation_accuracy"
  EvalTypeInferenceValidity = "inference_validity"
  EvalTypeSourceRelevance   = "source_relevance"
  EvalTypeCompleteness      = "completeness"
)

type EvalResult struct {
  ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  TaskID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"task_id"`
  Task      *ResearchTask  `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaskID;references:ID" json:"task,omitempty"`
  EvalType  string         `gorm:"column:eval_type;not null;index" json:"eval_type"`
  Score     *float64       `gorm:"column:score" json:"score,omitempty"` // null or [0,1]
  Details   datatypes.JSON `gorm:"column:details;type:jsonb" json:"details,omitempty"`
  CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (EvalResult) TableName() string {
  return "eval_results"
}

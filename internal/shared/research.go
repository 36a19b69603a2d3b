package shared

import (
  "fmt"
  "time"

  "github.com/go-playground/validator/v10"
)

// validate is shared by every Validate method in this package.
var validate = validator.New()

// TaskStatus is the lifecycle state of a research task.
type TaskStatus string

const (
  TaskStatusPending   TaskStatus = "pending"
  TaskStatusRunning   TaskStatus = "running"
  TaskStatusCompleted TaskStatus = "completed"
  TaskStatusFailed    TaskStatus = "failed"
)

func (s TaskStatus) Valid() bool {
  switch s {
  case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
    return true
  }
  return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s TaskStatus) Terminal() bool {
  return s == TaskStatusCompleted || s == TaskStatusFailed
}

// DefaultDegreesOfSeparation is applied when an inference does not state how
// far it sits from direct evidence.
const DefaultDegreesOfSeparation = 1

// Citation is a reference to an external source backing a finding or
// inference. It carries no identity beyond its containing result.
type Citation struct {
  Title   string `json:"title" validate:"required"`
  URL     string `json:"url" validate:"required,url"`
  Snippet string `json:"snippet" validate:"required"`
}

func (c *Citation) Validate() error {
  return validate.Struct(c)
}

// Inference is a derived claim annotated with how many reasoning steps
// removed it is from direct source evidence. The lower bound on
// degrees_of_separation is 1: a claim read directly off a source is a
// finding, not an inference.
type Inference struct {
  Claim                string   `json:"claim" validate:"required"`
  SupportingCitations  []string `json:"supporting_citations"`
  DegreesOfSeparation  int      `json:"degrees_of_separation" validate:"min=1"`
  Reasoning            string   `json:"reasoning" validate:"required"`
}

func (i *Inference) ApplyDefaults() {
  if i.DegreesOfSeparation == 0 {
    i.DegreesOfSeparation = DefaultDegreesOfSeparation
  }
  if i.SupportingCitations == nil {
    i.SupportingCitations = []string{}
  }
}

func (i *Inference) Validate() error {
  return validate.Struct(i)
}

// ReasoningStep is one step in the research agent's reasoning trace.
type ReasoningStep struct {
  StepNumber int    `json:"step_number" validate:"min=1"`
  Action     string `json:"action" validate:"required"`
  Input      string `json:"input"`
  Output     string `json:"output"`
  Rationale  string `json:"rationale"`
}

func (s *ReasoningStep) Validate() error {
  return validate.Struct(s)
}

// ResearchResult is the complete output of a finished research task.
type ResearchResult struct {
  Summary         string          `json:"summary" validate:"required"`
  KeyFindings     []string        `json:"key_findings"`
  Inferences      []Inference     `json:"inferences" validate:"dive"`
  ReasoningTrace  []ReasoningStep `json:"reasoning_trace" validate:"dive"`
  Citations       []Citation      `json:"citations" validate:"dive"`
  ConfidenceScore float64         `json:"confidence_score" validate:"min=0,max=1"`
}

func (r *ResearchResult) Validate() error {
  return validate.Struct(r)
}

// ResearchTask is the wire shape of a task. started_at and completed_at stay
// nil until the corresponding transition happens; serialization must keep
// that null distinction.
type ResearchTask struct {
  ID           string          `json:"id"`
  Query        string          `json:"query"`
  Status       TaskStatus      `json:"status"`
  Result       *ResearchResult `json:"result"`
  ErrorMessage *string         `json:"error_message"`
  CreatedAt    time.Time       `json:"created_at"`
  StartedAt    *time.Time      `json:"started_at"`
  CompletedAt  *time.Time      `json:"completed_at"`
}

func (t *ResearchTask) Validate() error {
  if !t.Status.Valid() {
    return fmt.Errorf("invalid task status %q", t.Status)
  }
  if t.Result != nil {
    if err := t.Result.Validate(); err != nil {
      return err
    }
  }
  return nil
}

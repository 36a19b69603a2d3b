package shared

import (
  "time"
)

const (
  DefaultMaxIterations = 5
  MaxQueryLength       = 2000
)

// CreateResearchRequest is the body of POST /api/research.
type CreateResearchRequest struct {
  Query         string  `json:"query" binding:"required,min=1,max=2000" validate:"required,min=1,max=2000"`
  WebhookURL    *string `json:"webhook_url,omitempty" binding:"omitempty,url" validate:"omitempty,url"`
  MaxIterations int     `json:"max_iterations,omitempty" binding:"omitempty,min=1,max=20" validate:"min=1,max=20"`
}

func (r *CreateResearchRequest) ApplyDefaults() {
  if r.MaxIterations == 0 {
    r.MaxIterations = DefaultMaxIterations
  }
}

func (r *CreateResearchRequest) Validate() error {
  return validate.Struct(r)
}

// CreateResearchResponse acknowledges a newly created task.
type CreateResearchResponse struct {
  TaskID    string     `json:"task_id"`
  Status    TaskStatus `json:"status"`
  CreatedAt time.Time  `json:"created_at"`
}

// GetResearchResponse wraps the full task for GET /api/research/:id.
type GetResearchResponse struct {
  Task ResearchTask `json:"task"`
}

// ListResearchResponse is the paginated task listing.
type ListResearchResponse struct {
  Tasks  []ResearchTask `json:"tasks"`
  Limit  int            `json:"limit"`
  Offset int            `json:"offset"`
}

// ResearchStreamChunk is one SSE frame: the event tag plus an opaque payload.
type ResearchStreamChunk struct {
  Event string         `json:"event"`
  Data  map[string]any `json:"data"`
}

// ErrorResponse is the standard error envelope for every non-2xx response.
type ErrorResponse struct {
  Error   string         `json:"error"`
  Message string         `json:"message"`
  Details map[string]any `json:"details,omitempty"`
}

// HealthStatus is the overall service health.
type HealthStatus string

const (
  HealthStatusHealthy   HealthStatus = "healthy"
  HealthStatusDegraded  HealthStatus = "degraded"
  HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
  Status    HealthStatus `json:"status"`
  Version   string       `json:"version"`
  Timestamp time.Time    `json:"timestamp"`
}

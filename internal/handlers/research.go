package handlers

import (
  "errors"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/deepresearch-backend/internal/logger"
  "github.com/yungbote/deepresearch-backend/internal/services"
  "github.com/yungbote/deepresearch-backend/internal/shared"
  "github.com/yungbote/deepresearch-backend/internal/sse"
)

type ResearchHandler struct {
  log      *logger.Logger
  research services.ResearchService
  hub      *sse.SSEHub
}

func NewResearchHandler(log *logger.Logger, research services.ResearchService, hub *sse.SSEHub) *ResearchHandler {
  return &ResearchHandler{
    log:      log.With("handler", "ResearchHandler"),
    research: research,
    hub:      hub,
  }
}

// POST /api/research
func (h *ResearchHandler) CreateTask(c *gin.Context) {
  var req shared.CreateResearchRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", err)
    return
  }

  resp, err := h.research.CreateTask(c.Request.Context(), nil, &req)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "validation_error", err)
    return
  }
  c.JSON(http.StatusCreated, resp)
}

// GET /api/research/:id
func (h *ResearchHandler) GetTask(c *gin.Context) {
  taskID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
    return
  }

  task, err := h.research.GetTask(c.Request.Context(), nil, taskID)
  if errors.Is(err, services.ErrTaskNotFound) {
    RespondError(c, http.StatusNotFound, "task_not_found", err)
    return
  }
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "internal_error", err)
    return
  }
  RespondOK(c, shared.GetResearchResponse{Task: *task})
}

// GET /api/research?limit=&offset=&status=
func (h *ResearchHandler) ListTasks(c *gin.Context) {
  limit := intQuery(c, "limit", 20)
  offset := intQuery(c, "offset", 0)
  status := c.Query("status")

  tasks, err := h.research.ListTasks(c.Request.Context(), nil, limit, offset, status)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_filter", err)
    return
  }
  RespondOK(c, shared.ListResearchResponse{Tasks: tasks, Limit: limit, Offset: offset})
}

// DELETE /api/research/:id
func (h *ResearchHandler) DeleteTask(c *gin.Context) {
  taskID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
    return
  }

  err = h.research.DeleteTask(c.Request.Context(), nil, taskID)
  if errors.Is(err, services.ErrTaskNotFound) {
    RespondError(c, http.StatusNotFound, "task_not_found", err)
    return
  }
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "internal_error", err)
    return
  }
  c.Status(http.StatusNoContent)
}

// GET /api/research/:id/stream
func (h *ResearchHandler) StreamTask(c *gin.Context) {
  taskID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
    return
  }

  task, err := h.research.GetTask(c.Request.Context(), nil, taskID)
  if errors.Is(err, services.ErrTaskNotFound) {
    RespondError(c, http.StatusNotFound, "task_not_found", err)
    return
  }
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "internal_error", err)
    return
  }

  client := h.hub.NewSSEClient()
  h.hub.AddChannel(client, taskID.String())
  defer h.hub.CloseClient(client)

  // A task that already reached a terminal state gets its final event
  // replayed immediately; there is nothing further to wait for.
  if ev := terminalEventFor(task); ev != nil {
    if chunk, cerr := shared.ChunkFromEvent(ev); cerr == nil {
      client.Outbound <- sse.SSEMessage{
        Channel: taskID.String(),
        Event:   ev.Type(),
        Data:    chunk.Data,
      }
    }
  }

  h.hub.ServeHTTP(c.Writer, c.Request, client)
}

func terminalEventFor(task *shared.ResearchTask) shared.StreamEvent {
  switch task.Status {
  case shared.TaskStatusCompleted:
    var result shared.ResearchResult
    if task.Result != nil {
      result = *task.Result
    }
    return shared.NewTaskCompletedEvent(task.ID, result)
  case shared.TaskStatusFailed:
    msg := "research task failed"
    if task.ErrorMessage != nil {
      msg = *task.ErrorMessage
    }
    return shared.NewTaskFailedEvent(task.ID, msg, nil)
  }
  return nil
}

func intQuery(c *gin.Context, key string, defaultVal int) int {
  raw := c.Query(key)
  if raw == "" {
    return defaultVal
  }
  val, err := strconv.Atoi(raw)
  if err != nil || val < 0 {
    return defaultVal
  }
  return val
}

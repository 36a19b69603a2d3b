package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/deepresearch-backend/internal/logger"
	"github.com/yungbote/deepresearch-backend/internal/shared"
	"github.com/yungbote/deepresearch-backend/internal/sse"
)

// TaskNotifier fans a lifecycle transition out to SSE subscribers and, when
// the task registered a webhook URL, to the webhook endpoint.
type TaskNotifier interface {
	TaskCreated(ctx context.Context, taskID uuid.UUID, query string, webhookURL string)
	TaskStarted(ctx context.Context, taskID uuid.UUID, webhookURL string)
	StepCompleted(ctx context.Context, taskID uuid.UUID, step shared.ReasoningStep, webhookURL string)
	TaskCompleted(ctx context.Context, taskID uuid.UUID, result shared.ResearchResult, webhookURL string)
	TaskFailed(ctx context.Context, taskID uuid.UUID, errorMessage string, details map[string]any, webhookURL string)
}

type taskNotifier struct {
	log      *logger.Logger
	emit     SSEEmitter
	webhooks WebhookService
}

func NewTaskNotifier(log *logger.Logger, emit SSEEmitter, webhooks WebhookService) TaskNotifier {
	return &taskNotifier{
		log:      log.With("service", "TaskNotifier"),
		emit:     emit,
		webhooks: webhooks,
	}
}

func (n *taskNotifier) TaskCreated(ctx context.Context, taskID uuid.UUID, query string, webhookURL string) {
	n.dispatch(ctx, shared.NewTaskCreatedEvent(taskID.String(), query), webhookURL)
}

func (n *taskNotifier) TaskStarted(ctx context.Context, taskID uuid.UUID, webhookURL string) {
	n.dispatch(ctx, shared.NewTaskStartedEvent(taskID.String()), webhookURL)
}

func (n *taskNotifier) StepCompleted(ctx context.Context, taskID uuid.UUID, step shared.ReasoningStep, webhookURL string) {
	n.dispatch(ctx, shared.NewStepCompletedEvent(taskID.String(), step), webhookURL)
}

func (n *taskNotifier) TaskCompleted(ctx context.Context, taskID uuid.UUID, result shared.ResearchResult, webhookURL string) {
	n.dispatch(ctx, shared.NewTaskCompletedEvent(taskID.String(), result), webhookURL)
}

func (n *taskNotifier) TaskFailed(ctx context.Context, taskID uuid.UUID, errorMessage string, details map[string]any, webhookURL string) {
	n.dispatch(ctx, shared.NewTaskFailedEvent(taskID.String(), errorMessage, details), webhookURL)
}

func (n *taskNotifier) dispatch(ctx context.Context, ev shared.StreamEvent, webhookURL string) {
	if n == nil || ev == nil {
		return
	}
	if n.emit != nil {
		chunk, err := shared.ChunkFromEvent(ev)
		if err != nil {
			n.log.Warn("Failed to build SSE chunk", "event", ev.Type(), "error", err)
		} else {
			n.emit.Emit(ctx, sse.SSEMessage{
				Channel: ev.Base().TaskID,
				Event:   ev.Type(),
				Data:    chunk.Data,
			})
		}
	}
	if n.webhooks != nil && webhookURL != "" {
		go func() {
			// detach from the request context; the caller should not wait on
			// webhook delivery
			dctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := n.webhooks.Deliver(dctx, webhookURL, ev); err != nil {
				n.log.Warn("Webhook delivery failed", "url", webhookURL, "event", ev.Type(), "error", err)
			}
		}()
	}
}

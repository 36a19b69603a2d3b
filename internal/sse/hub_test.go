package sse

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/deepresearch-backend/internal/logger"
	"github.com/yungbote/deepresearch-backend/internal/shared"
)

func newTestHub(t *testing.T) *SSEHub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewSSEHub(log)
}

func TestBroadcastRoutesByChannel(t *testing.T) {
	hub := newTestHub(t)

	subscribed := hub.NewSSEClient()
	hub.AddChannel(subscribed, "task-a")
	other := hub.NewSSEClient()
	hub.AddChannel(other, "task-b")

	hub.Broadcast(SSEMessage{
		Channel: "task-a",
		Event:   shared.EventStepCompleted,
		Data:    map[string]any{"step": 1},
	})

	select {
	case msg := <-subscribed.Outbound:
		if msg.Event != shared.EventStepCompleted {
			t.Fatalf("event: %s", msg.Event)
		}
	default:
		t.Fatalf("subscribed client got nothing")
	}
	select {
	case msg := <-other.Outbound:
		t.Fatalf("wrong channel delivered: %+v", msg)
	default:
	}
}

func TestBroadcastAfterCloseClient(t *testing.T) {
	hub := newTestHub(t)

	client := hub.NewSSEClient()
	hub.AddChannel(client, "task-a")
	hub.CloseClient(client)

	// The subscription is gone, so this must not panic on the closed channel.
	hub.Broadcast(SSEMessage{Channel: "task-a", Event: shared.EventTaskStarted})
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub(t)

	client := hub.NewSSEClient()
	hub.AddChannel(client, "task-a")

	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(SSEMessage{Channel: "task-a", Event: shared.EventStepCompleted})
	}
	if got := len(client.Outbound); got != cap(client.Outbound) {
		t.Fatalf("outbound length: want=%d got=%d", cap(client.Outbound), got)
	}
}

func TestServeHTTPWritesFramesAndStopsAtTerminal(t *testing.T) {
	hub := newTestHub(t)

	client := hub.NewSSEClient()
	hub.AddChannel(client, "task-a")

	client.Outbound <- SSEMessage{
		Channel: "task-a",
		Event:   shared.EventStepCompleted,
		Data:    map[string]any{"step": map[string]any{"step_number": 1}},
	}
	client.Outbound <- SSEMessage{
		Channel: "task-a",
		Event:   shared.EventTaskCompleted,
		Data:    map[string]any{"result": map[string]any{"summary": "done"}},
	}
	// Queued after the terminal event; must never be written.
	client.Outbound <- SSEMessage{
		Channel: "task-a",
		Event:   shared.EventStepCompleted,
		Data:    map[string]any{"step": map[string]any{"step_number": 2}},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/research/task-a/stream", nil)
	hub.ServeHTTP(w, req, client)

	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type: %q", got)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: step_completed\n") {
		t.Fatalf("step frame missing:\n%s", body)
	}
	if !strings.Contains(body, "event: task_completed\n") {
		t.Fatalf("terminal frame missing:\n%s", body)
	}
	if strings.Count(body, "event: step_completed\n") != 1 {
		t.Fatalf("frames after the terminal event were written:\n%s", body)
	}
	if !strings.Contains(body, `"summary":"done"`) {
		t.Fatalf("payload missing:\n%s", body)
	}
}

func TestServeHTTPStopsOnContextCancel(t *testing.T) {
	hub := newTestHub(t)

	client := hub.NewSSEClient()
	hub.AddChannel(client, "task-a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/research/task-a/stream", nil).WithContext(ctx)
	hub.ServeHTTP(w, req, client)
	// Returning at all is the assertion; a hung stream would time the test out.
}

func TestRemoveChannelStopsDelivery(t *testing.T) {
	hub := newTestHub(t)

	client := hub.NewSSEClient()
	hub.AddChannel(client, "task-a")
	hub.RemoveChannel(client, "task-a")

	hub.Broadcast(SSEMessage{Channel: "task-a", Event: shared.EventTaskStarted})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("unsubscribed client got: %+v", msg)
	default:
	}
}

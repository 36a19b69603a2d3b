package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/deepresearch-backend/internal/logger"
	"github.com/yungbote/deepresearch-backend/internal/shared"
)

func TestWebhookDeliverSignsPayload(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	var (
		gotBody      []byte
		gotSignature string
		gotEvent     string
		gotType      string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotEvent = r.Header.Get("X-Webhook-Event")
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	secret := "test-secret"
	svc := NewWebhookService(log, secret)

	taskID := uuid.New()
	ev := shared.NewTaskStartedEvent(taskID.String())
	if err := svc.Deliver(context.Background(), srv.URL, ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if gotType != "application/json" {
		t.Fatalf("content type: %q", gotType)
	}
	if gotEvent != string(shared.EventTaskStarted) {
		t.Fatalf("event header: want=%s got=%s", shared.EventTaskStarted, gotEvent)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := hex.EncodeToString(mac.Sum(nil))
	if gotSignature != want {
		t.Fatalf("signature mismatch: want=%s got=%s", want, gotSignature)
	}

	var payload map[string]any
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if payload["event_type"] != string(shared.EventTaskStarted) {
		t.Fatalf("payload event_type: %v", payload["event_type"])
	}
	if payload["task_id"] != taskID.String() {
		t.Fatalf("payload task_id: %v", payload["task_id"])
	}
}

func TestWebhookDeliverWithoutSecret(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	var gotSignature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := NewWebhookService(log, "")
	if err := svc.Deliver(context.Background(), srv.URL, shared.NewTaskStartedEvent(uuid.NewString())); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotSignature != "" {
		t.Fatalf("unsigned delivery carried a signature: %q", gotSignature)
	}
}

func TestWebhookDeliverNon2xx(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewWebhookService(log, "s")
	if err := svc.Deliver(context.Background(), srv.URL, shared.NewTaskStartedEvent(uuid.NewString())); err == nil {
		t.Fatalf("500 response: want error")
	}
}

func TestWebhookDeliverEmptyURLIsNoop(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	svc := NewWebhookService(log, "s")
	if err := svc.Deliver(context.Background(), "", shared.NewTaskStartedEvent(uuid.NewString())); err != nil {
		t.Fatalf("empty url must be a no-op: %v", err)
	}
}

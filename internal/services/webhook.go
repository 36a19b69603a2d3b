package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/yungbote/deepresearch-backend/internal/logger"
	"github.com/yungbote/deepresearch-backend/internal/shared"
)

// WebhookService posts stream events to a caller-supplied URL. Deliveries
// are signed with HMAC-SHA256 over the raw body when a secret is configured.
// There is no retry; a failed delivery is logged and dropped.
type WebhookService interface {
	Deliver(ctx context.Context, url string, ev shared.StreamEvent) error
}

type webhookService struct {
	log    *logger.Logger
	client *http.Client
	secret string
}

func NewWebhookService(log *logger.Logger, secret string) WebhookService {
	return &webhookService{
		log:    log.With("service", "WebhookService"),
		client: &http.Client{Timeout: 10 * time.Second},
		secret: secret,
	}
}

func (s *webhookService) Deliver(ctx context.Context, url string, ev shared.StreamEvent) error {
	if url == "" {
		return nil
	}
	body, err := shared.EncodeStreamEvent(ev)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", string(ev.Type()))
	if s.secret != "" {
		mac := hmac.New(sha256.New, []byte(s.secret))
		mac.Write(body)
		req.Header.Set("X-Webhook-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	s.log.Debug("Webhook delivered", "url", url, "event", ev.Type())
	return nil
}

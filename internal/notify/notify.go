// Package notify delivers best-effort event notifications to an external
// broadcaster. Delivery failures never affect ledger correctness; callers log
// and move on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Event types emitted by the transaction processor.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
	EventSettlementRecorded = "settlement.recorded"
)

// Notifier broadcasts group events. Implementations must be best effort: a
// slow, failing or absent broadcaster must not block or corrupt the ledger.
type Notifier interface {
	Notify(ctx context.Context, groupID, eventType string, payload any) error
}

// Noop discards all events. Used when no broadcaster is configured.
type Noop struct{}

// Notify does nothing.
func (Noop) Notify(context.Context, string, string, any) error { return nil }

// event is the JSON envelope posted to the webhook.
type event struct {
	GroupID string `json:"group_id"`
	Type    string `json:"type"`
	SentAt  int64  `json:"sent_at"`
	Payload any    `json:"payload,omitempty"`
}

// Webhook posts events as JSON to a configured URL.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhook creates a webhook notifier. Extra headers (auth tokens, etc.) are
// set on every request.
func NewWebhook(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts the event. Non-2xx responses are reported as errors so the
// caller can log them.
func (w *Webhook) Notify(ctx context.Context, groupID, eventType string, payload any) error {
	body, err := json.Marshal(event{
		GroupID: groupID,
		Type:    eventType,
		SentAt:  time.Now().Unix(),
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver event: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

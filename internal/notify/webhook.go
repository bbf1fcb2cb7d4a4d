// Package notify holds the outbound notification sinks: the chat
// webhook used for request notifications and reminders, and the mailer
// used by the monthly report.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookSender posts short text messages to an external messaging
// endpoint. Failures are logged by callers and never retried.
type WebhookSender interface {
	Post(ctx context.Context, text string) error
}

// HTTPWebhook posts JSON bodies of the form {"text": "..."} to a fixed
// endpoint.
type HTTPWebhook struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPWebhook builds the sender. An empty URL yields a sender that
// drops messages with a debug log, mirroring the unset-config behavior
// of the notification stubs.
func NewHTTPWebhook(url string, logger *zap.Logger) *HTTPWebhook {
	return &HTTPWebhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Post sends the message.
func (w *HTTPWebhook) Post(ctx context.Context, text string) error {
	if w.url == "" {
		w.logger.Debug("webhook url not configured; dropping message", zap.String("text", text))
		return nil
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

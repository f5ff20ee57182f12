package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultWebhookTimeout = 5 * time.Second

// Webhook POSTs alerts as JSON to a fixed URL. Body: {"message": "..."}.
type Webhook struct {
	client *http.Client
	url    string
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	c := &http.Client{Timeout: timeout}
	return &Webhook{client: c, url: strings.TrimSpace(url)}
}

type webhookPayload struct {
	Message string `json:"message"`
}

func (w *Webhook) Send(ctx context.Context, message string) error {
	b, _ := json.Marshal(webhookPayload{Message: message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notifier status %d", resp.StatusCode)
	}
	return nil
}

package notify

import (
	"context"
	"fmt"
	"net/http"
)

// Slack posts {"text": msg} to an incoming webhook.
type Slack struct {
	url    string
	client *http.Client
}

var _ Notifier = (*Slack)(nil)

// NewSlack creates a Slack notifier. A nil client uses a default with timeout.
func NewSlack(webhookURL string, client *http.Client) *Slack {
	if client == nil {
		client = defaultClient()
	}

	return &Slack{url: webhookURL, client: client}
}

// Notify posts text to the webhook.
func (s *Slack) Notify(ctx context.Context, text string) error {
	if s.url == "" {
		return fmt.Errorf("slack: %w", ErrNotConfigured)
	}

	if err := postJSON(ctx, s.client, s.url, map[string]string{"text": text}, nil); err != nil {
		return fmt.Errorf("slack: %w", err)
	}

	return nil
}

// Webhook posts {"name", "message"} payloads and returns the decoded reply.
type Webhook struct {
	url    string
	name   string
	client *http.Client
}

var _ Notifier = (*Webhook)(nil)

// NewWebhook creates a Webhook. name is the sender used by Notify.
func NewWebhook(url, name string, client *http.Client) *Webhook {
	if client == nil {
		client = defaultClient()
	}

	return &Webhook{url: url, name: name, client: client}
}

// Send posts a message on behalf of name and returns the JSON response body.
func (w *Webhook) Send(ctx context.Context, name, message string) (map[string]any, error) {
	if w.url == "" {
		return nil, fmt.Errorf("webhook: %w", ErrNotConfigured)
	}

	out := map[string]any{}

	if err := postJSON(ctx, w.client, w.url, map[string]string{"name": name, "message": message}, &out); err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}

	return out, nil
}

// Notify sends text under the configured sender name.
func (w *Webhook) Notify(ctx context.Context, text string) error {
	_, err := w.Send(ctx, w.name, text)
	return err
}

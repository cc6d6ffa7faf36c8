// Package notify posts gateway traffic into the team chat platform.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/edwardmsalem/sms-gateway/internal/models"

	"github.com/go-resty/resty/v2"
)

// Notifier is the chat platform contract. Implementations must tolerate
// benign "already exists" conditions instead of failing.
type Notifier interface {
	PostNewThread(ctx context.Context, conv *models.Conversation, content string) (threadRef string, err error)
	PostToThread(ctx context.Context, threadRef, content string) error
	PostToChannel(ctx context.Context, channel, content string) error
}

// WebhookNotifier posts through a chat webhook endpoint.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier builds a notifier against the given webhook URL.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		client: resty.New().SetTimeout(timeout),
		url:    url,
	}
}

type postRequest struct {
	Channel   string `json:"channel,omitempty"`
	ThreadRef string `json:"threadRef,omitempty"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
}

type postResponse struct {
	ThreadRef string `json:"threadRef"`
	Error     string `json:"error"`
}

// PostNewThread opens a thread for a conversation and returns its
// reference.
func (n *WebhookNotifier) PostNewThread(ctx context.Context, conv *models.Conversation, content string) (string, error) {
	title := fmt.Sprintf("SMS %s -> %s (bank %s slot %s)", conv.SenderPhone, conv.RecipientPhone, conv.BankID, conv.SimPort)
	out, err := n.post(ctx, postRequest{Title: title, Text: content})
	if err != nil {
		return "", err
	}
	if out.ThreadRef == "" {
		return "", fmt.Errorf("chat webhook returned no thread reference")
	}
	return out.ThreadRef, nil
}

// PostToThread replies inside an existing thread.
func (n *WebhookNotifier) PostToThread(ctx context.Context, threadRef, content string) error {
	_, err := n.post(ctx, postRequest{ThreadRef: threadRef, Text: content})
	return err
}

// PostToChannel posts to a named channel (verification codes, spam digest).
func (n *WebhookNotifier) PostToChannel(ctx context.Context, channel, content string) error {
	_, err := n.post(ctx, postRequest{Channel: channel, Text: content})
	return err
}

func (n *WebhookNotifier) post(ctx context.Context, body postRequest) (*postResponse, error) {
	var out postResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(n.url)
	if err != nil {
		return nil, fmt.Errorf("chat webhook: %w", err)
	}

	// "already exists" is benign: the platform raced us to create the same
	// thread or channel and the post still landed.
	if out.Error == "already_exists" {
		return &out, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chat webhook: HTTP %d: %s", resp.StatusCode(), out.Error)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("chat webhook: %s", out.Error)
	}
	return &out, nil
}

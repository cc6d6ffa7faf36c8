// Package spam wraps the external text classification service and the
// verification-code heuristics that bypass it.
package spam

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Verdict is the classifier's opinion of one message.
type Verdict struct {
	Spam       bool    `json:"spam"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classifier decides whether message content is spam. Callers must fail
// open: blocking a legitimate business message is worse than missing an
// occasional spam message.
type Classifier interface {
	Classify(ctx context.Context, content, senderPhone string) (Verdict, error)
}

// HTTPClassifier calls an external classification endpoint.
type HTTPClassifier struct {
	client *resty.Client
	url    string
}

// NewHTTPClassifier builds a classifier against the given endpoint.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClassifier{
		client: resty.New().SetTimeout(timeout),
		url:    url,
	}
}

type classifyRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

// Classify submits the message for classification.
func (c *HTTPClassifier) Classify(ctx context.Context, content, senderPhone string) (Verdict, error) {
	var verdict Verdict
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(classifyRequest{Content: content, Sender: senderPhone}).
		SetResult(&verdict).
		Post(c.url)
	if err != nil {
		return Verdict{}, fmt.Errorf("spam classifier: %w", err)
	}
	if resp.StatusCode() != 200 {
		return Verdict{}, fmt.Errorf("spam classifier: unexpected HTTP %d", resp.StatusCode())
	}
	return verdict, nil
}

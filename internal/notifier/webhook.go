package notifier

import (
	"context"
	"fmt"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookPayload webhook 请求体
type WebhookPayload struct {
	Source string              `json:"source"`
	SentAt time.Time           `json:"sent_at"`
	Events []models.AlertEvent `json:"events"`
}

// WebhookNotifier 以 JSON POST 推送报警事件
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhookNotifier 创建 webhook 通知器
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(5*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Content-Type", "application/json")

	return &WebhookNotifier{
		client: client,
		url:    url,
		logger: logger,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, events []models.AlertEvent) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(WebhookPayload{
			Source: "wisefido-vitals",
			SentAt: time.Now().UTC(),
			Events: events,
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to post alert events: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	n.logger.Debug("Alert events posted to webhook",
		zap.String("url", n.url),
		zap.Int("event_count", len(events)),
	)
	return nil
}

package notify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/mattjoyce/linear-relay/internal/apperr"
)

// DefaultTimeout bounds a single Slack webhook POST.
const DefaultTimeout = 10 * time.Second

// SenderConfig configures a Sender.
type SenderConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Sender posts messages to a Slack incoming webhook.
type Sender struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSender creates a Sender.
func NewSender(cfg SenderConfig, logger *slog.Logger) *Sender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Sender{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Send makes exactly one delivery attempt. Any non-200 answer, transport
// error or timeout is reported as apperr.KindDelivery.
func (s *Sender) Send(ctx context.Context, msg *slack.WebhookMessage) error {
	const op = "slack.send"

	if s.webhookURL == "" {
		return apperr.Configuration(op, "SLACK_WEBHOOK_URL is not set")
	}

	start := time.Now()
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg); err != nil {
		return apperr.Delivery(op, "failed to post to Slack", err)
	}

	s.logger.Debug("slack message delivered", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

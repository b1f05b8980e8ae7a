package webhook

import (
	"log/slog"

	"github.com/mattjoyce/linear-relay/internal/config"
	"github.com/mattjoyce/linear-relay/internal/linear"
	"github.com/mattjoyce/linear-relay/internal/notify"
	"github.com/mattjoyce/linear-relay/internal/relay"
)

// NewFromConfig wires the Linear client, Slack sender and relay behind a
// Server. Missing secrets do not fail here; the server answers 500 for them.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	opts, err := notify.OptionsFromConfig(cfg.Format)
	if err != nil {
		return nil, err
	}

	client := linear.NewClient(linear.ClientConfig{
		APIURL:  cfg.Linear.APIURL,
		APIKey:  cfg.Linear.APIKey,
		Timeout: cfg.Linear.Timeout,
	}, logger.With("component", "linear"))

	sender := notify.NewSender(notify.SenderConfig{
		WebhookURL: cfg.Slack.WebhookURL,
		Timeout:    cfg.Slack.Timeout,
	}, logger.With("component", "slack"))

	r := relay.New(relay.Config{
		Enrich: cfg.Linear.Enrich,
		Format: opts,
	}, client, sender, logger.With("component", "relay"))

	return New(FromConfig(cfg), r, logger.With("component", "webhook")), nil
}

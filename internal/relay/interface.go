package relay

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/mattjoyce/linear-relay/internal/linear"
)

//go:generate mockgen -destination=mocks/mock_relay.go -package=mocks github.com/mattjoyce/linear-relay/internal/relay InitiativeFetcher,Notifier

// InitiativeFetcher looks up the initiatives a project belongs to.
type InitiativeFetcher interface {
	FetchInitiatives(ctx context.Context, projectID string) ([]linear.Initiative, error)
}

// Notifier delivers a formatted message.
type Notifier interface {
	Send(ctx context.Context, msg *slack.WebhookMessage) error
}

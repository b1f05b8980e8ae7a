// Package relay runs the post-authentication half of a webhook delivery:
// enrich the event with initiatives, format the Slack message and send it.
package relay

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/linear-relay/internal/linear"
	"github.com/mattjoyce/linear-relay/internal/notify"
)

// Stage names a step of a delivery. It is recorded on failures and in logs.
type Stage string

const (
	StageEnrich  Stage = "enrich"
	StageDeliver Stage = "deliver"
)

// Config controls optional steps of the pipeline.
type Config struct {
	// Enrich fetches initiatives before formatting. When false the message
	// is built without an initiatives block.
	Enrich bool
	Format notify.Options
}

// Relay is safe for concurrent use; it holds only read-only configuration
// and its collaborators.
type Relay struct {
	config   Config
	fetcher  InitiativeFetcher
	notifier Notifier
	logger   *slog.Logger
}

// New creates a Relay.
func New(config Config, fetcher InitiativeFetcher, notifier Notifier, logger *slog.Logger) *Relay {
	return &Relay{
		config:   config,
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logger,
	}
}

// Result describes a completed delivery.
type Result struct {
	Initiatives int
	Blocks      int
}

// StageError records the stage a delivery stopped at. The wrapped error
// keeps its apperr kind.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Deliver runs enrich, format and send in order, stopping at the first
// failure. Nothing is sent when enrichment fails.
func (r *Relay) Deliver(ctx context.Context, ev *linear.WebhookEvent) (*Result, error) {
	logger := r.logger.With("project_id", ev.Data.Project.ID)

	var initiatives []linear.Initiative
	if r.config.Enrich {
		var err error
		initiatives, err = r.fetcher.FetchInitiatives(ctx, ev.Data.Project.ID)
		if err != nil {
			return nil, &StageError{Stage: StageEnrich, Err: err}
		}
		logger.Debug("event enriched", "initiatives", len(initiatives))
	}

	msg := notify.BuildMessage(ev, initiatives, r.config.Format)
	blocks := 0
	if msg.Blocks != nil {
		blocks = len(msg.Blocks.BlockSet)
	}
	logger.Debug("message formatted", "blocks", blocks, "health", string(ev.Data.Health))

	if err := r.notifier.Send(ctx, msg); err != nil {
		return nil, &StageError{Stage: StageDeliver, Err: err}
	}

	return &Result{Initiatives: len(initiatives), Blocks: blocks}, nil
}

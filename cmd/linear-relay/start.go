package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/linear-relay/internal/doctor"
	"github.com/mattjoyce/linear-relay/internal/log"
	"github.com/mattjoyce/linear-relay/internal/webhook"
)

func newStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Serve the webhook endpoint until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), opts)
		},
	}
}

func runStart(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	info := currentVersionInfo()
	log.Info("linear-relay starting",
		"version", info.Version,
		"commit", info.Commit,
		"config", cfg.SourceFile,
	)

	// Missing secrets are reported but do not stop the server; each delivery
	// is answered with 500 until they are set.
	result := doctor.New(cfg).Validate()
	for _, issue := range result.Errors {
		log.Error("configuration error", "field", issue.Field, "message", issue.Message)
	}
	for _, issue := range result.Warnings {
		log.Warn("configuration warning", "field", issue.Field, "message", issue.Message)
	}

	server, err := webhook.NewFromConfig(cfg, log.Get())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		stop()
		log.Info("shutdown requested", "cause", context.Cause(gctx))
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("linear-relay stopped")
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/mattjoyce/linear-relay/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(config.LoadOptions{
		ConfigPath: o.configPath,
		EnvFile:    o.envFile,
	})
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "linear-relay",
		Short: "Relay Linear project updates to Slack",
		Long: `linear-relay receives Linear project-update webhooks, verifies their
signature and freshness, looks up the project's initiatives and posts a
formatted message to a Slack incoming webhook.

Configuration comes from defaults, an optional .env file, an optional YAML
file (--config) and the environment:
  LINEAR_WEBHOOK_SECRET   shared webhook signing secret
  LINEAR_API_KEY          Linear API key for the initiatives lookup
  SLACK_WEBHOOK_URL       Slack incoming webhook URL
  SKIP_VALIDATION         true to skip signature and timestamp checks (testing only)
  PORT                    listen port
  LOG_LEVEL               debug, info, warn or error

Quick Start:
  linear-relay config check        # Report missing settings
  linear-relay start               # Serve webhooks
  linear-relay preview update.json # Print the Slack message for a payload`,
		Version:       currentVersionInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to a dotenv file (default .env, optional)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newStartCmd(opts),
		newConfigCmd(opts),
		newPreviewCmd(opts),
		newSignCmd(opts),
	)
	return root
}

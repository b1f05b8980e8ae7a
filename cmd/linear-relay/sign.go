package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/linear-relay/internal/webhook"
)

func newSignCmd(opts *rootOptions) *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "sign <payload.json>",
		Short: "Print the signature header value for a payload",
		Long: `Print the hex HMAC-SHA256 of a payload file, as Linear sends it in the
Linear-Signature header. The secret defaults to the configured webhook secret.

  curl -X POST localhost:8080/ \
    -H "Linear-Signature: $(linear-relay sign update.json)" \
    --data-binary @update.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				secret = cfg.Linear.WebhookSecret
			}
			if secret == "" {
				return fmt.Errorf("no secret: pass --secret or set LINEAR_WEBHOOK_SECRET")
			}

			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), webhook.Sign(secret, body))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (default: configured webhook secret)")
	return cmd
}

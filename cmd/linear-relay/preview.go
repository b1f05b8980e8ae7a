package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/linear-relay/internal/linear"
	"github.com/mattjoyce/linear-relay/internal/notify"
)

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var initiativesFile string
	cmd := &cobra.Command{
		Use:   "preview <payload.json>",
		Short: "Print the Slack message a webhook payload would produce",
		Long: `Print the Slack Block Kit JSON for a saved webhook payload. Nothing is
sent and the Linear API is not called; pass --initiatives with a JSON array
of {"id","name"} objects to include an initiatives block.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			format, err := notify.OptionsFromConfig(cfg.Format)
			if err != nil {
				return err
			}

			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			ev, err := linear.DecodeEvent(body)
			if err != nil {
				return err
			}
			if err := ev.Validate(); err != nil {
				return err
			}

			var initiatives []linear.Initiative
			if initiativesFile != "" {
				data, err := os.ReadFile(initiativesFile)
				if err != nil {
					return fmt.Errorf("failed to read initiatives: %w", err)
				}
				if err := json.Unmarshal(data, &initiatives); err != nil {
					return fmt.Errorf("failed to parse initiatives %s: %w", initiativesFile, err)
				}
			}

			return writeMessageJSON(cmd.OutOrStdout(), notify.BuildMessage(ev, initiatives, format))
		},
	}
	cmd.Flags().StringVar(&initiativesFile, "initiatives", "", "JSON file with initiatives to include")
	return cmd
}

// writeMessageJSON prints msg with its mrkdwn intact. slack-go's block types
// escape <, > and & in their own MarshalJSON, so the message is decoded into
// plain values before being re-encoded.
func writeMessageJSON(w io.Writer, msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return writeJSON(w, plain)
}

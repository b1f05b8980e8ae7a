package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/linear-relay/internal/config"
	"github.com/mattjoyce/linear-relay/internal/doctor"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and lock the configuration",
	}
	cmd.AddCommand(
		newConfigCheckCmd(opts),
		newConfigShowCmd(opts),
		newConfigGetCmd(opts),
		newConfigLockCmd(opts),
	)
	return cmd
}

func newConfigCheckCmd(opts *rootOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report missing secrets and risky settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			result := doctor.New(cfg).Validate()

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				printValidationSummary(out, result)
			}

			if !result.Valid {
				return fmt.Errorf("configuration check failed with %d error(s)", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the result as JSON")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), cfg.Redacted())
			}
			data, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON instead of YAML")
	return cmd
}

func newConfigGetCmd(opts *rootOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print one value, e.g. linear.api_url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			val, err := cfg.GetPath(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), val)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", val)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON")
	return cmd
}

func newConfigLockCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Record the BLAKE3 hash of the config file in .checksums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath == "" {
				return fmt.Errorf("--config is required")
			}
			report, err := config.Lock(opts.configPath, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Written {
				fmt.Fprintln(out, successStyle.Render("✓ locked"), report.ConfigPath)
			} else {
				fmt.Fprintln(out, mutedStyle.Render("dry run:"), report.ConfigPath)
			}
			fmt.Fprintf(out, "  blake3: %s\n  manifest: %s\n", report.Hash, report.ChecksumPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the hash without writing .checksums")
	return cmd
}

func printValidationSummary(w io.Writer, result *doctor.Result) {
	if result == nil {
		return
	}

	fmt.Fprintln(w, sectionStyle.Render("linear-relay configuration check"))
	switch {
	case !result.Valid:
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ failed (%d error(s), %d warning(s))",
			len(result.Errors), len(result.Warnings))))
	case len(result.Warnings) == 0:
		fmt.Fprintln(w, successStyle.Render("✓ All checks passed"))
		return
	default:
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("✓ passed with %d warning(s)", len(result.Warnings))))
	}

	for _, issue := range result.Errors {
		fmt.Fprintf(w, "  %s %s\n", errorStyle.Render("ERROR"), formatIssue(issue))
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(w, "  %s %s\n", warningStyle.Render("WARN "), formatIssue(issue))
	}
}

func formatIssue(issue doctor.Issue) string {
	if issue.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", issue.Category, issue.Field, issue.Message)
	}
	return fmt.Sprintf("[%s] %s", issue.Category, issue.Message)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Package doctor checks a linear-relay configuration for settings that would
// make deliveries fail or weaken their security.
package doctor

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattjoyce/linear-relay/internal/config"
	"github.com/mattjoyce/linear-relay/internal/notify"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor from a loaded config.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateSecrets(r)
	d.validateSlack(r)
	d.warnSkipValidation(r)
	d.warnFreshnessWindow(r)
	d.warnFormat(r)
	d.warnUnlocked(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateSecrets reports settings without which every delivery fails.
func (d *Doctor) validateSecrets(r *Result) {
	if d.cfg.Linear.WebhookSecret == "" {
		d.addError(r, "secrets", "linear.webhook_secret",
			fmt.Sprintf("webhook secret is not set (set %s)", config.EnvWebhookSecret))
	}
	if d.cfg.Slack.WebhookURL == "" {
		d.addError(r, "secrets", "slack.webhook_url",
			fmt.Sprintf("Slack webhook URL is not set (set %s)", config.EnvSlackURL))
	}
	if d.cfg.Linear.Enrich && d.cfg.Linear.APIKey == "" {
		d.addError(r, "secrets", "linear.api_key",
			fmt.Sprintf("Linear API key is not set but enrich is on (set %s or linear.enrich: false)", config.EnvAPIKey))
	}
	if !d.cfg.Linear.Enrich {
		d.addWarning(r, "linear", "linear.enrich", "enrich is off, messages will not list initiatives")
	}
}

func (d *Doctor) validateSlack(r *Result) {
	if d.cfg.Slack.WebhookURL == "" {
		return
	}
	u, err := url.Parse(d.cfg.Slack.WebhookURL)
	if err != nil {
		d.addError(r, "slack", "slack.webhook_url", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "https" {
		d.addWarning(r, "slack", "slack.webhook_url", "webhook URL is not https")
	}
	if u.Host != "hooks.slack.com" {
		d.addWarning(r, "slack", "slack.webhook_url",
			fmt.Sprintf("host %q is not hooks.slack.com", u.Host))
	}
}

func (d *Doctor) warnSkipValidation(r *Result) {
	if d.cfg.Linear.SkipValidation {
		d.addWarning(r, "security", "linear.skip_validation",
			"signature and timestamp checks are disabled; any caller can post to Slack")
	}
}

func (d *Doctor) warnFreshnessWindow(r *Result) {
	if d.cfg.Linear.FreshnessWindow > 5*time.Minute {
		d.addWarning(r, "security", "linear.freshness_window",
			fmt.Sprintf("freshness window %s widens the replay window", d.cfg.Linear.FreshnessWindow))
	}
}

func (d *Doctor) warnFormat(r *Result) {
	if d.cfg.Format.MaxBodyLength > notify.SectionTextLimit {
		d.addWarning(r, "format", "format.max_body_length",
			fmt.Sprintf("values above %d have no effect; Slack rejects longer section text", notify.SectionTextLimit))
	}
	if d.cfg.Format.MaxBodyLength == 0 {
		d.addWarning(r, "format", "format.max_body_length",
			fmt.Sprintf("bodies are only cut at Slack's %d character section limit", notify.SectionTextLimit))
	}
	if strings.EqualFold(d.cfg.Format.TimezoneLabel, "PST") && d.cfg.Format.Timezone != "America/Los_Angeles" {
		d.addWarning(r, "format", "format.timezone_label",
			fmt.Sprintf("label PST does not match timezone %s", d.cfg.Format.Timezone))
	}
}

// warnUnlocked flags a config file that has no checksum manifest.
func (d *Doctor) warnUnlocked(r *Result) {
	if d.cfg.SourceFile == "" {
		return
	}
	checksums := filepath.Join(filepath.Dir(d.cfg.SourceFile), config.ChecksumFile)
	if _, err := os.Stat(checksums); os.IsNotExist(err) {
		d.addWarning(r, "integrity", "",
			fmt.Sprintf("%s is not locked (run 'linear-relay config lock')", filepath.Base(d.cfg.SourceFile)))
	}
}

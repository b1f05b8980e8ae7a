package webhook

import (
	"time"

	"github.com/mattjoyce/linear-relay/internal/config"
)

// DefaultMaxBodySize is the default request body limit (1MB).
const DefaultMaxBodySize = 1 << 20

// DefaultSignatureHeader is the header Linear puts the body signature in.
const DefaultSignatureHeader = "Linear-Signature"

// Config holds the webhook server settings.
type Config struct {
	Listen          string
	Path            string
	MaxBodySize     int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Secret          string
	SignatureHeader string
	FreshnessWindow time.Duration
	SkipValidation  bool

	// Missing lists the environment variables a delivery needs that are
	// unset. Every delivery is answered with 500 while it is non-empty.
	Missing []string
}

// FromConfig builds server settings from the loaded configuration.
func FromConfig(cfg *config.Config) Config {
	var missing []string
	if cfg.Linear.WebhookSecret == "" {
		missing = append(missing, config.EnvWebhookSecret)
	}
	if cfg.Slack.WebhookURL == "" {
		missing = append(missing, config.EnvSlackURL)
	}
	if cfg.Linear.Enrich && cfg.Linear.APIKey == "" {
		missing = append(missing, config.EnvAPIKey)
	}

	return Config{
		Listen:          cfg.Server.Listen,
		Path:            cfg.Server.Path,
		MaxBodySize:     cfg.Server.MaxBodyBytes,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Secret:          cfg.Linear.WebhookSecret,
		SignatureHeader: cfg.Linear.SignatureHeader,
		FreshnessWindow: cfg.Linear.FreshnessWindow,
		SkipValidation:  cfg.Linear.SkipValidation,
		Missing:         missing,
	}
}

func (c *Config) applyDefaults() {
	if c.Path == "" {
		c.Path = "/"
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	if c.SignatureHeader == "" {
		c.SignatureHeader = DefaultSignatureHeader
	}
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = DefaultFreshnessWindow
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

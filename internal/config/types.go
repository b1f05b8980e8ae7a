package config

import "time"

// Config is the complete linear-relay configuration. It is built once at
// process start and shared read-only by every request.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Server  ServerConfig  `yaml:"server"`
	Linear  LinearConfig  `yaml:"linear"`
	Slack   SlackConfig   `yaml:"slack"`
	Format  FormatConfig  `yaml:"format"`

	// SourceFile is the absolute path of the YAML file this config was read
	// from, empty when built from defaults and environment only.
	SourceFile string `yaml:"-"`
}

// ServiceConfig defines process-level settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// ServerConfig defines the inbound HTTP listener.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	Path            string        `yaml:"path"`
	MaxBodySize     string        `yaml:"max_body_size"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes is MaxBodySize parsed by Validate.
	MaxBodyBytes int64 `yaml:"-"`
}

// LinearConfig defines the webhook source and the Linear API.
type LinearConfig struct {
	WebhookSecret   string        `yaml:"webhook_secret"`
	SignatureHeader string        `yaml:"signature_header"`
	APIKey          string        `yaml:"api_key"`
	APIURL          string        `yaml:"api_url"`
	Timeout         time.Duration `yaml:"timeout"`
	Enrich          bool          `yaml:"enrich"`
	FreshnessWindow time.Duration `yaml:"freshness_window"`

	// SkipValidation disables the freshness and signature checks. It exists
	// for local testing only.
	SkipValidation bool `yaml:"skip_validation"`
}

// SlackConfig defines the delivery destination.
type SlackConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// FormatConfig defines message presentation.
type FormatConfig struct {
	Timezone          string `yaml:"timezone"`
	TimezoneLabel     string `yaml:"timezone_label"`
	MaxBodyLength     int    `yaml:"max_body_length"`
	PlaceholderAvatar string `yaml:"placeholder_avatar"`
}

// Defaults returns a Config with every optional field set.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "linear-relay",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Server: ServerConfig{
			Listen:          ":8080",
			Path:            "/",
			MaxBodySize:     "1MB",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Linear: LinearConfig{
			SignatureHeader: "Linear-Signature",
			APIURL:          "https://api.linear.app/graphql",
			Timeout:         10 * time.Second,
			Enrich:          true,
			FreshnessWindow: 60 * time.Second,
		},
		Slack: SlackConfig{
			Timeout: 10 * time.Second,
		},
		Format: FormatConfig{
			Timezone:          "America/Los_Angeles",
			TimezoneLabel:     "PST",
			MaxBodyLength:     2800,
			PlaceholderAvatar: "https://via.placeholder.com/48",
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Environment variables that override file values.
const (
	EnvWebhookSecret  = "LINEAR_WEBHOOK_SECRET"
	EnvAPIKey         = "LINEAR_API_KEY"
	EnvSlackURL       = "SLACK_WEBHOOK_URL"
	EnvSkipValidation = "SKIP_VALIDATION"
	EnvPort           = "PORT"
	EnvLogLevel       = "LOG_LEVEL"
)

// DefaultEnvFile is read when LoadOptions.EnvFile is empty. A missing file
// is not an error.
const DefaultEnvFile = ".env"

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// ConfigPath is an optional YAML file.
	ConfigPath string
	// EnvFile is a dotenv file; process environment takes precedence over it.
	EnvFile string
	// LookupEnv replaces os.LookupEnv, mainly for tests.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration: defaults, then the YAML file with ${VAR}
// interpolation, then environment overrides, then validation.
func Load(opts LoadOptions) (*Config, error) {
	lookup, err := newEnvLookup(opts)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()

	if opts.ConfigPath != "" {
		absPath, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", opts.ConfigPath, err)
		}
		if err := verifyConfigHash(absPath); err != nil {
			return nil, err
		}
		if err := loadConfigFile(absPath, cfg, lookup); err != nil {
			return nil, err
		}
		cfg.SourceFile = absPath
	}

	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newEnvLookup layers the process environment over the dotenv file.
func newEnvLookup(opts LoadOptions) (func(string) (string, bool), error) {
	base := opts.LookupEnv
	if base == nil {
		base = os.LookupEnv
	}

	envFile := opts.EnvFile
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}

	fileVars, err := godotenv.Read(envFile)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}

	return func(key string) (string, bool) {
		if v, ok := base(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

// loadConfigFile decodes a YAML file over cfg, keeping defaults for keys the
// file does not set.
func loadConfigFile(path string, cfg *Config, lookup func(string) (string, bool)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", path)
	}

	interpolated := interpolateEnv(string(data), lookup)
	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	return nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are replaced with an empty string so that an unset
// secret reads as missing rather than as a literal placeholder.
func interpolateEnv(input string, lookup func(string) (string, bool)) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := lookup(varName); exists {
			return value
		}
		return ""
	})
}

func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvWebhookSecret); ok && v != "" {
		cfg.Linear.WebhookSecret = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		cfg.Linear.APIKey = v
	}
	if v, ok := lookup(EnvSlackURL); ok && v != "" {
		cfg.Slack.WebhookURL = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		cfg.Server.Listen = ":" + v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Service.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvSkipValidation); ok && v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean (true/false/1/0), got %q", EnvSkipValidation, v)
		}
		cfg.Linear.SkipValidation = skip
	}
	return nil
}

// Validate checks value formats and fills derived fields. Missing secrets
// are not reported here; the server answers 500 for them and doctor lists
// them.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", c.Service.LogLevel)
	}
	if c.Service.LogFormat != "json" && c.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", c.Service.LogFormat)
	}

	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path must start with / (got %q)", c.Server.Path)
	}
	size, err := ParseSize(c.Server.MaxBodySize)
	if err != nil {
		return fmt.Errorf("server.max_body_size: %w", err)
	}
	c.Server.MaxBodyBytes = size

	for field, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"linear.timeout":          c.Linear.Timeout,
		"linear.freshness_window": c.Linear.FreshnessWindow,
		"slack.timeout":           c.Slack.Timeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", field)
		}
	}

	if c.Linear.SignatureHeader == "" {
		return fmt.Errorf("linear.signature_header is required")
	}
	if err := validateURL(c.Linear.APIURL); err != nil {
		return fmt.Errorf("linear.api_url: %w", err)
	}
	if c.Slack.WebhookURL != "" {
		if err := validateURL(c.Slack.WebhookURL); err != nil {
			return fmt.Errorf("slack.webhook_url: %w", err)
		}
	}

	if _, err := c.Format.Location(); err != nil {
		return fmt.Errorf("format.timezone: %w", err)
	}
	if c.Format.MaxBodyLength < 0 {
		return fmt.Errorf("format.max_body_length must not be negative")
	}

	return nil
}

// Location loads the configured display time zone.
func (f FormatConfig) Location() (*time.Location, error) {
	if f.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(f.Timezone)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) URL (got %q)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// ParseSize parses size strings like "1MB", "512KB" or "1048576" to bytes.
func ParseSize(size string) (int64, error) {
	if size == "" {
		return 0, fmt.Errorf("size is required")
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", size, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}

// Package config provides YAML configuration parsing for usersboard.
//
// This package enables running usersboard as a standalone binary with a
// configuration file, as an alternative to wiring the App in code.
//
// Example configuration:
//
//	port: 8080
//	page_count: 25
//	log_level: info
//
//	upstream:
//	  url: ${USERS_API:-https://users.example.com/api}
//	  timeout: 5s
//	  refresh_interval: 1m
//
//	seed:
//	  - type: user.filter
//	    data:
//	      filter:
//	        role: admin
//
// After the file is parsed, USERSBOARD_* environment variables override the
// matching fields (see [Parse]).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/usersboard/users"
)

const (
	defaultPort            = 8080
	defaultPageCount       = users.DefaultPageCount
	defaultRefreshInterval = 30 * time.Second

	// minRefreshInterval keeps a misconfigured refresh from hammering the upstream.
	minRefreshInterval = 1 * time.Second
	maxRefreshInterval = 24 * time.Hour
)

// Config is the root configuration structure for usersboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP API port. Defaults to 8080.
	Port int `yaml:"port"`

	// PageCount is the page size requested from the upstream and reported by
	// the store. Defaults to 50.
	PageCount int `yaml:"page_count"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel LogLevel `yaml:"log_level"`

	// Upstream configures the users API. Optional.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Seed lists actions dispatched at startup, in order.
	Seed []users.Envelope `yaml:"seed"`

	// Tracing configures OpenTelemetry export. Off unless an endpoint is set.
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig describes where spans are exported.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	Endpoint string `yaml:"endpoint"`

	// ServiceName is reported as service.name. Defaults to usersboard.
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces kept; 0 keeps all.
	SampleRatio float64 `yaml:"sample_ratio"`
}

// UpstreamConfig describes the API that serves pages of users.
type UpstreamConfig struct {
	// URL is the API base URL; users are fetched from <url>/user.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Timeout is the per-request timeout. Defaults to 10s in the App.
	Timeout Duration `yaml:"timeout"`

	// RefreshInterval is the time between background syncs.
	// Defaults to 30s; 0s disables background syncs.
	RefreshInterval *Duration `yaml:"refresh_interval"`
}

// envOverrides holds raw USERSBOARD_* values. Zero values mean unset, except
// for RefreshInterval where nil means unset and 0s disables refresh.
type envOverrides struct {
	Port            int            `env:"USERSBOARD_PORT"`
	PageCount       int            `env:"USERSBOARD_PAGE_COUNT"`
	LogLevel        string         `env:"USERSBOARD_LOG_LEVEL"`
	UpstreamURL     string         `env:"USERSBOARD_UPSTREAM_URL"`
	UpstreamTimeout time.Duration  `env:"USERSBOARD_UPSTREAM_TIMEOUT"`
	RefreshInterval *time.Duration `env:"USERSBOARD_REFRESH_INTERVAL"`
	OTelEndpoint    string         `env:"USERSBOARD_OTEL_ENDPOINT"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// LogLevel is a textual slog level.
type LogLevel string

// Level converts to a slog.Level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch strings.ToLower(string(l)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l LogLevel) valid() bool {
	switch strings.ToLower(string(l)) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// RefreshIntervalOrDefault returns the effective background sync interval.
func (u UpstreamConfig) RefreshIntervalOrDefault() time.Duration {
	if u.RefreshInterval == nil {
		return defaultRefreshInterval
	}
	return u.RefreshInterval.Duration()
}

// Actions returns the seed actions in order.
func (c *Config) Actions() []users.Action {
	actions := make([]users.Action, 0, len(c.Seed))
	for _, e := range c.Seed {
		actions = append(actions, e.Action)
	}
	return actions
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Processing order: YAML decode, ${VAR} expansion in upstream.url,
// USERSBOARD_* environment overrides, defaults, validation.
//
// Recognised environment variables: USERSBOARD_PORT, USERSBOARD_PAGE_COUNT,
// USERSBOARD_LOG_LEVEL, USERSBOARD_UPSTREAM_URL, USERSBOARD_UPSTREAM_TIMEOUT,
// USERSBOARD_REFRESH_INTERVAL and USERSBOARD_OTEL_ENDPOINT.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Upstream.URL != "" {
		expanded, err := expandEnvVars(cfg.Upstream.URL)
		if err != nil {
			return nil, fmt.Errorf("upstream.url: %w", err)
		}
		cfg.Upstream.URL = expanded
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PageCount == 0 {
		cfg.PageCount = defaultPageCount
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overrides fields with any USERSBOARD_* variables that are set.
func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.PageCount != 0 {
		c.PageCount = o.PageCount
	}
	if o.LogLevel != "" {
		c.LogLevel = LogLevel(o.LogLevel)
	}
	if o.UpstreamURL != "" {
		c.Upstream.URL = o.UpstreamURL
	}
	if o.UpstreamTimeout != 0 {
		c.Upstream.Timeout = Duration(o.UpstreamTimeout)
	}
	if o.RefreshInterval != nil {
		d := Duration(*o.RefreshInterval)
		c.Upstream.RefreshInterval = &d
	}
	if o.OTelEndpoint != "" {
		c.Tracing.Endpoint = o.OTelEndpoint
	}
	return nil
}

// validate checks ranges and formats.
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PageCount < 1 {
		return fmt.Errorf("page_count must be positive, got %d", c.PageCount)
	}

	if !c.LogLevel.valid() {
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if err := c.Upstream.validate(); err != nil {
		return err
	}

	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("tracing: sample_ratio must be between 0 and 1, got %v", r)
	}
	if c.Tracing.Endpoint != "" {
		if _, err := url.ParseRequestURI(c.Tracing.Endpoint); err != nil {
			return fmt.Errorf("tracing: invalid endpoint: %w", err)
		}
	}

	for i, e := range c.Seed {
		if u, ok := e.Action.(users.UnknownAction); ok {
			return fmt.Errorf("seed[%d]: unknown action type %q", i, u.Type)
		}
	}

	return nil
}

func (u UpstreamConfig) validate() error {
	if u.URL == "" {
		if u.Timeout != 0 || u.RefreshInterval != nil {
			return errors.New("upstream: url is required when timeout or refresh_interval is set")
		}
		return nil
	}

	parsedURL, err := url.Parse(u.URL)
	if err != nil {
		return fmt.Errorf("upstream: invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("upstream: url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if u.Timeout != 0 && u.Timeout.Duration() < time.Second {
		return fmt.Errorf("upstream: timeout must be at least 1s if specified, got %s", u.Timeout.Duration())
	}

	if u.RefreshInterval != nil {
		d := u.RefreshInterval.Duration()
		if d != 0 && d < minRefreshInterval {
			return fmt.Errorf("upstream: refresh_interval must be at least %s, got %s", minRefreshInterval, d)
		}
		if d > maxRefreshInterval {
			return fmt.Errorf("upstream: refresh_interval must not exceed %s, got %s", maxRefreshInterval, d)
		}
	}

	return nil
}

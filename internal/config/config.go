// ABOUTME: Configuration loading and parsing for hearth-bridge
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete hearth-bridge configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Stream    StreamConfig    `yaml:"stream"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// BaseURL is the externally visible URL prefix used when announcing the
	// callback endpoint to streaming clients. Empty means relative paths.
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
// Token is the single shared bearer secret; if empty, every request is denied.
// Identity is the acting identity a valid token resolves to.
// Capabilities maps identities to the capability names they hold.
type AuthConfig struct {
	Token        string              `yaml:"token"`
	Identity     string              `yaml:"identity"`
	Capabilities map[string][]string `yaml:"capabilities"`
}

// StreamConfig holds streaming transport timing configuration
type StreamConfig struct {
	PollInterval      time.Duration `yaml:"-"`
	HeartbeatInterval time.Duration `yaml:"-"`
	IdleTimeout       time.Duration `yaml:"-"`
	DebugIdleTimeout  time.Duration `yaml:"-"`
	MessageTTL        time.Duration `yaml:"-"`
	SweepSchedule     string        `yaml:"sweep_schedule"`

	// Raw string values for YAML unmarshaling
	PollIntervalRaw      string `yaml:"poll_interval"`
	HeartbeatIntervalRaw string `yaml:"heartbeat_interval"`
	IdleTimeoutRaw       string `yaml:"idle_timeout"`
	DebugIdleTimeoutRaw  string `yaml:"debug_idle_timeout"`
	MessageTTLRaw        string `yaml:"message_ttl"`
}

// RateLimitConfig holds request rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults applied when the corresponding config values are absent.
const (
	DefaultPollInterval      = 200 * time.Millisecond
	DefaultHeartbeatInterval = 10 * time.Second
	DefaultIdleTimeout       = 5 * time.Minute
	DefaultDebugIdleTimeout  = time.Minute
	DefaultMessageTTL        = 5 * time.Minute
	DefaultSweepSchedule     = "* * * * *"
	DefaultIdentity          = "admin"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.ApplyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// ApplyDefaults fills in zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Stream.PollInterval == 0 {
		c.Stream.PollInterval = DefaultPollInterval
	}
	if c.Stream.HeartbeatInterval == 0 {
		c.Stream.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Stream.IdleTimeout == 0 {
		c.Stream.IdleTimeout = DefaultIdleTimeout
	}
	if c.Stream.DebugIdleTimeout == 0 {
		c.Stream.DebugIdleTimeout = DefaultDebugIdleTimeout
	}
	if c.Stream.MessageTTL == 0 {
		c.Stream.MessageTTL = DefaultMessageTTL
	}
	if c.Stream.SweepSchedule == "" {
		c.Stream.SweepSchedule = DefaultSweepSchedule
	}
	if c.Auth.Identity == "" {
		c.Auth.Identity = DefaultIdentity
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond == 0 {
			c.RateLimit.RequestsPerSecond = 10
		}
		if c.RateLimit.Burst == 0 {
			c.RateLimit.Burst = 20
		}
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Stream.PollInterval <= 0 {
		return fmt.Errorf("stream.poll_interval must be positive")
	}

	if c.Stream.IdleTimeout <= 0 {
		return fmt.Errorf("stream.idle_timeout must be positive")
	}

	if c.Stream.MessageTTL <= 0 {
		return fmt.Errorf("stream.message_ttl must be positive")
	}

	return nil
}

// IdleTimeoutFor returns the idle ceiling to apply given the logging level.
// Debug logging shortens the ceiling so abandoned sessions do not linger
// while an operator is watching verbose output.
func (c *Config) IdleTimeoutFor(logLevel string) time.Duration {
	if logLevel == "debug" {
		return c.Stream.DebugIdleTimeout
	}
	return c.Stream.IdleTimeout
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{cfg.Stream.PollIntervalRaw, &cfg.Stream.PollInterval, "poll_interval"},
		{cfg.Stream.HeartbeatIntervalRaw, &cfg.Stream.HeartbeatInterval, "heartbeat_interval"},
		{cfg.Stream.IdleTimeoutRaw, &cfg.Stream.IdleTimeout, "idle_timeout"},
		{cfg.Stream.DebugIdleTimeoutRaw, &cfg.Stream.DebugIdleTimeout, "debug_idle_timeout"},
		{cfg.Stream.MessageTTLRaw, &cfg.Stream.MessageTTL, "message_ttl"},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}

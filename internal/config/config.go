// Package config provides configuration types and defaults for bookforge.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// TimeoutConfig bounds each class of backend call.
type TimeoutConfig struct {
	Submit     time.Duration `mapstructure:"submit"`
	Questions  time.Duration `mapstructure:"questions"`
	Generation time.Duration `mapstructure:"generation"`
	Progress   time.Duration `mapstructure:"progress"`
}

// LogConfig holds logging options.
type LogConfig struct {
	// Path of the log file. Empty uses the default under the data dir.
	Path string `mapstructure:"path"`

	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
}

// TelemetryConfig holds tracing options.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects where spans go: "stdout" or "otlp".
	Exporter string `mapstructure:"exporter"`

	// Endpoint is the OTLP gRPC target, e.g. "localhost:4317".
	Endpoint string `mapstructure:"endpoint"`
}

// ThemeConfig holds theme customization options.
type ThemeConfig struct {
	// Mode forces light or dark mode. If empty, uses terminal detection.
	// Valid values: "light", "dark", ""
	Mode string `mapstructure:"mode"`
}

// Config holds all configuration options for bookforge.
type Config struct {
	// BackendURL is the base URL of the book-writing service.
	BackendURL string `mapstructure:"backend_url"`

	// DatabasePath locates the session database. Empty uses the default
	// under the user data dir.
	DatabasePath string `mapstructure:"database_path"`

	// PollInterval is the base delay between writing-progress polls. The
	// server-suggested interval from /config overrides it when present.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	Timeouts  TimeoutConfig   `mapstructure:"timeouts"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Theme     ThemeConfig     `mapstructure:"theme"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		BackendURL:   "http://localhost:8000",
		PollInterval: 2 * time.Second,
		Timeouts: TimeoutConfig{
			Submit:     30 * time.Second,
			Questions:  60 * time.Second,
			Generation: 120 * time.Second,
			Progress:   10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Exporter: "stdout",
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url: %q is not a valid http(s) URL", c.BackendURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url: unsupported scheme %q", u.Scheme)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: %q is not one of debug, info, warn, error", c.Log.Level)
	}

	switch c.Telemetry.Exporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry.exporter: %q is not one of stdout, otlp", c.Telemetry.Exporter)
	}
	if c.Telemetry.Enabled && c.Telemetry.Exporter == "otlp" && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint: required when exporter is otlp")
	}

	switch c.Theme.Mode {
	case "", "light", "dark":
	default:
		return fmt.Errorf("theme.mode: %q is not one of light, dark", c.Theme.Mode)
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval: must not be negative")
	}
	return nil
}

// DataDir returns the directory holding the database and log file.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".bookforge"), nil
}

// DefaultConfigTemplate returns the default config as a YAML string with
// comments.
func DefaultConfigTemplate() string {
	return `# Bookforge Configuration

# Base URL of the book-writing backend
backend_url: http://localhost:8000

# Where the session database lives (default: ~/.bookforge/bookforge.db)
# database_path: /path/to/bookforge.db

# Base delay between writing-progress polls.
# The backend's poll_interval_ms from /config takes precedence when set.
poll_interval: 2s

# Per-call deadlines
timeouts:
  submit: 30s       # form submission, writing kickoff, session restore
  questions: 60s    # question generation and answer submission
  generation: 120s  # draft and outline generation (LLM-heavy)
  progress: 10s     # a single progress poll

# Logging
log:
  level: info       # debug, info, warn, error
  # path: /path/to/bookforge.log

# Tracing (disabled by default)
telemetry:
  enabled: false
  exporter: stdout  # stdout or otlp
  # endpoint: localhost:4317

# Theme
theme:
  # Force light or dark mode; empty uses terminal detection
  # mode: dark
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

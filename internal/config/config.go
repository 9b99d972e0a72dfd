// Package config provides configuration loading for nautwatch.
//
// Configuration is read once at startup and never changes afterwards.
// Missing required values are fatal: the daemon exits before it starts
// watching.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ErrMissingRequired indicates a required setting was not provided.
var ErrMissingRequired = errors.New("missing required configuration")

// Config holds the complete nautwatch configuration.
type Config struct {
	Watch     WatchConfig     `koanf:"watch"`
	API       APIConfig       `koanf:"api"`
	Enrich    EnrichConfig    `koanf:"enrich"`
	Daemon    DaemonConfig    `koanf:"daemon"`
	Status    StatusConfig    `koanf:"status"`
	NATS      NATSConfig      `koanf:"nats"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// WatchConfig describes the watched tree and its host-side location.
type WatchConfig struct {
	ContainerPath string   `koanf:"container_path"`
	HostPath      string   `koanf:"host_path"`
	Debounce      Duration `koanf:"debounce"`
	DebounceMS    int      `koanf:"debounce_ms"` // legacy DEBOUNCE_MS; wins over Debounce when set
	IgnoreInitial bool     `koanf:"ignore_initial"`
	Ignore        []string `koanf:"ignore"` // extra ignore patterns, added to .nautwatchignore
}

// APIConfig holds tracking API client settings.
type APIConfig struct {
	URL       string   `koanf:"url"`
	Timeout   Duration `koanf:"timeout"`
	RateLimit float64  `koanf:"rate_limit"` // requests per second, 0 disables limiting
	Burst     int      `koanf:"burst"`
}

// EnrichConfig toggles optional fields sent on project creation.
type EnrichConfig struct {
	Summary bool `koanf:"summary"`
	GitRepo bool `koanf:"git_repo"`
	Redact  bool `koanf:"redact"` // opt-in: scrub credentials from concept text
}

// DaemonConfig holds lifecycle settings.
type DaemonConfig struct {
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// StatusConfig controls the local health/metrics server.
type StatusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// NATSConfig enables publishing registration outcomes. An empty URL
// disables publishing.
type NATSConfig struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig controls OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled       bool    `koanf:"enabled"`
	Endpoint      string  `koanf:"endpoint"`
	Protocol      string  `koanf:"protocol"`
	Insecure      bool    `koanf:"insecure"`
	TLSSkipVerify bool    `koanf:"tls_skip_verify"`
	SampleRate    float64 `koanf:"sample_rate"`
	ServiceName   string  `koanf:"service_name"`
}

// Default returns configuration with every optional value filled in.
// Required values (watch paths, API URL) are left empty.
func Default() Config {
	return Config{
		Watch: WatchConfig{
			Debounce: Duration(5 * time.Second),
		},
		API: APIConfig{
			Timeout:   Duration(10 * time.Second),
			RateLimit: 5,
			Burst:     10,
		},
		Enrich: EnrichConfig{
			Summary: true,
			GitRepo: true,
		},
		Daemon: DaemonConfig{
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Status: StatusConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    9464,
		},
		NATS: NATSConfig{
			Subject: "nautwatch.projects",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
			SampleRate:  1.0,
			ServiceName: "nautwatch",
		},
	}
}

// DebounceDelay returns the effective debounce delay.
func (c *Config) DebounceDelay() time.Duration {
	if c.Watch.DebounceMS > 0 {
		return time.Duration(c.Watch.DebounceMS) * time.Millisecond
	}
	return c.Watch.Debounce.Duration()
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	var missing []string
	if c.Watch.ContainerPath == "" {
		missing = append(missing, "watch.container_path (CONTAINER_WATCH_PATH)")
	}
	if c.Watch.HostPath == "" {
		missing = append(missing, "watch.host_path (HOST_WATCH_PATH)")
	}
	if c.API.URL == "" {
		missing = append(missing, "api.url (NAUTMANAGER_API_URL)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	if !filepath.IsAbs(c.Watch.ContainerPath) {
		return fmt.Errorf("watch.container_path must be absolute, got %q", c.Watch.ContainerPath)
	}
	if c.DebounceDelay() <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}

	u, err := url.Parse(c.API.URL)
	if err != nil {
		return fmt.Errorf("invalid api.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api.url must include a host")
	}
	if c.API.Timeout.Duration() <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative")
	}
	if c.API.RateLimit > 0 && c.API.Burst < 1 {
		return fmt.Errorf("api.burst must be >= 1 when rate limiting")
	}

	if c.Daemon.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("daemon.shutdown_timeout must be positive")
	}

	if c.Status.Enabled && (c.Status.Port < 1 || c.Status.Port > 65535) {
		return fmt.Errorf("status.port must be between 1 and 65535, got %d", c.Status.Port)
	}

	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url is set")
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
			return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol)
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %f", c.Telemetry.SampleRate)
		}
	}

	return nil
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.Watch.ContainerPath = "/watch"
	cfg.Watch.HostPath = "/srv/projects"
	cfg.API.URL = "http://nautmanager:5001/api"
	return cfg
}

func TestDefault_RequiresPathsAndURL(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequired)
	assert.Contains(t, err.Error(), "CONTAINER_WATCH_PATH")
	assert.Contains(t, err.Error(), "HOST_WATCH_PATH")
	assert.Contains(t, err.Error(), "NAUTMANAGER_API_URL")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "relative container path", modify: func(c *Config) { c.Watch.ContainerPath = "watch" }, wantErr: "absolute"},
		{name: "bad scheme", modify: func(c *Config) { c.API.URL = "ftp://host/api" }, wantErr: "http or https"},
		{name: "missing host", modify: func(c *Config) { c.API.URL = "http:///api" }, wantErr: "host"},
		{name: "zero timeout", modify: func(c *Config) { c.API.Timeout = 0 }, wantErr: "api.timeout"},
		{name: "negative rate", modify: func(c *Config) { c.API.RateLimit = -1 }, wantErr: "rate_limit"},
		{name: "rate without burst", modify: func(c *Config) { c.API.Burst = 0 }, wantErr: "burst"},
		{name: "unlimited rate without burst", modify: func(c *Config) { c.API.RateLimit = 0; c.API.Burst = 0 }},
		{name: "bad status port", modify: func(c *Config) { c.Status.Port = 70000 }, wantErr: "status.port"},
		{name: "status disabled ignores port", modify: func(c *Config) { c.Status.Enabled = false; c.Status.Port = 0 }},
		{name: "nats without subject", modify: func(c *Config) { c.NATS.URL = "nats://localhost:4222"; c.NATS.Subject = "" }, wantErr: "nats.subject"},
		{name: "bad log level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "bad log format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "telemetry bad protocol", modify: func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Protocol = "udp" }, wantErr: "telemetry.protocol"},
		{name: "telemetry bad rate", modify: func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.SampleRate = 2 }, wantErr: "sample_rate"},
		{name: "zero shutdown timeout", modify: func(c *Config) { c.Daemon.ShutdownTimeout = 0 }, wantErr: "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_DebounceDelay(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 5*time.Second, cfg.DebounceDelay())

	cfg.Watch.Debounce = Duration(2 * time.Second)
	assert.Equal(t, 2*time.Second, cfg.DebounceDelay())

	cfg.Watch.DebounceMS = 250
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceDelay())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1500ms")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	text, err := Duration(3 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "3s", string(text))
}

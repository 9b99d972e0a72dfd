package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes section-style environment overrides.
	EnvPrefix = "NAUTWATCH_"
)

// legacyEnv maps the variable names of the original watcher deployment onto
// config keys, so existing compose files keep working.
var legacyEnv = map[string]string{
	"CONTAINER_WATCH_PATH": "watch.container_path",
	"HOST_WATCH_PATH":      "watch.host_path",
	"NAUTMANAGER_API_URL":  "api.url",
	"DEBOUNCE_MS":          "watch.debounce_ms",
}

// Load reads configuration from an optional YAML file, then environment
// variables, then fills defaults and validates.
//
// Precedence (highest to lowest):
//  1. NAUTWATCH_<SECTION>_<FIELD> variables (NAUTWATCH_API_TIMEOUT -> api.timeout)
//  2. Legacy variables (CONTAINER_WATCH_PATH, HOST_WATCH_PATH,
//     NAUTMANAGER_API_URL, DEBOUNCE_MS)
//  3. YAML file
//  4. Defaults
//
// If configPath is empty, ~/.config/nautwatch/config.yaml is used when it
// exists. An explicit configPath must exist.
//
// Config files must live under ~/.config/nautwatch/ or /etc/nautwatch/, be
// at most 1MB, and (outside Windows) have 0600, 0640 or 0400 permissions.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "nautwatch", "config.yaml")
	}

	if err := loadFile(k, configPath, explicit); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps NAUTWATCH_API_RATE_LIMIT to api.rate_limit: the first segment
// after the prefix is the section, the remainder the field name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func loadFile(k *koanf.Koanf, configPath string, mustExist bool) error {
	if err := validateConfigPath(configPath); err != nil {
		return fmt.Errorf("config path validation failed: %w", err)
	}

	f, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil
		}
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	// Validate through the open descriptor to avoid a TOCTOU race.
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return nil
}

// allowedConfigDirs lists the directories config files may be read from.
func allowedConfigDirs() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{
		filepath.Join(home, ".config", "nautwatch"),
		"/etc/nautwatch",
	}, nil
}

// validateConfigPath checks that path resolves inside an allowed directory.
// It runs even when the file does not exist.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolved = absPath
	}

	dirs, err := allowedConfigDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if resolved == dir || strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/nautwatch/ or /etc/nautwatch/")
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0640 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600, 0640 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// applyDefaults restores defaults for values explicitly set to zero.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = def.Watch.Debounce
	}
	cfg.Watch.ContainerPath = strings.TrimSpace(cfg.Watch.ContainerPath)
	cfg.Watch.HostPath = strings.TrimSpace(cfg.Watch.HostPath)
	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")

	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = def.API.Timeout
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Status.Host == "" {
		cfg.Status.Host = def.Status.Host
	}
	if cfg.Status.Port == 0 {
		cfg.Status.Port = def.Status.Port
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = def.NATS.Subject
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = def.Telemetry.Protocol
	}
}

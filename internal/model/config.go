package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Default timings, in milliseconds, used when neither the config file nor
// the environment sets them.
const (
	DefaultIdleTimeoutMs          = 900000
	DefaultIdleWarningCountdownMs = 60000
	DefaultHeartbeatIntervalMs    = 300000

	// NotificationPollTicks is the fixed notification cadence (3 minutes).
	NotificationPollTicks = 180
)

// APIConfig holds the REST backend connection settings.
type APIConfig struct {
	// BaseURL is the root URL of the backend (e.g. https://erp.example.com/api).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// SessionConfig holds the liveness timings. All values are milliseconds,
// matching the environment variables that override them.
type SessionConfig struct {
	IdleTimeoutMs          int `mapstructure:"idle_timeout_ms" yaml:"idle_timeout_ms"`
	IdleWarningCountdownMs int `mapstructure:"idle_warning_countdown_ms" yaml:"idle_warning_countdown_ms"`
	HeartbeatIntervalMs    int `mapstructure:"heartbeat_interval_ms" yaml:"heartbeat_interval_ms"`
	NotificationPollTicks  int `mapstructure:"notification_poll_ticks" yaml:"notification_poll_ticks"`
}

// IdleTimeout returns the idle threshold as a duration.
func (c SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}

// WarningTicks returns the warning countdown in whole one-second ticks.
func (c SessionConfig) WarningTicks() int {
	return msToTicks(c.IdleWarningCountdownMs)
}

// HeartbeatTicks returns the heartbeat interval in whole one-second ticks.
func (c SessionConfig) HeartbeatTicks() int {
	return msToTicks(c.HeartbeatIntervalMs)
}

// msToTicks converts milliseconds to one-second ticks, never below one.
func msToTicks(ms int) int {
	ticks := ms / 1000
	if ticks < 1 {
		return 1
	}
	return ticks
}

// StorageConfig locates the local durable state.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LogConfig controls the client log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/infomodule, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "infomodule")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/infomodule/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when nothing is set.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 30,
		},
		Session: SessionConfig{
			IdleTimeoutMs:          DefaultIdleTimeoutMs,
			IdleWarningCountdownMs: DefaultIdleWarningCountdownMs,
			HeartbeatIntervalMs:    DefaultHeartbeatIntervalMs,
			NotificationPollTicks:  NotificationPollTicks,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(dir, "state.db"),
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "infomodule.log"),
			Level: "info",
		},
	}
}

// newViper returns a Viper instance with defaults and the recognized
// environment variables bound.
func newViper(path string) *viper.Viper {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("session.idle_timeout_ms", def.Session.IdleTimeoutMs)
	v.SetDefault("session.idle_warning_countdown_ms", def.Session.IdleWarningCountdownMs)
	v.SetDefault("session.heartbeat_interval_ms", def.Session.HeartbeatIntervalMs)
	v.SetDefault("session.notification_poll_ticks", def.Session.NotificationPollTicks)
	v.SetDefault("storage.db_path", def.Storage.DBPath)
	v.SetDefault("log.path", def.Log.Path)
	v.SetDefault("log.level", def.Log.Level)

	// BindEnv only fails when called without a key.
	_ = v.BindEnv("api.base_url", "API_BASE_URL")
	_ = v.BindEnv("session.idle_timeout_ms", "IDLE_TIMEOUT")
	_ = v.BindEnv("session.idle_warning_countdown_ms", "IDLE_WARNING_COUNTDOWN")
	_ = v.BindEnv("session.heartbeat_interval_ms", "HEARTBEAT_INTERVAL")
	_ = v.BindEnv("log.level", "LOG_LEVEL")

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// overlaid by environment variables. A missing file is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects timings that would make the ticker misbehave.
func (c *AppConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Session.IdleTimeoutMs <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %dms", c.Session.IdleTimeoutMs)
	}
	if c.Session.IdleWarningCountdownMs <= 0 {
		return fmt.Errorf("idle warning countdown must be positive, got %dms", c.Session.IdleWarningCountdownMs)
	}
	if c.Session.HeartbeatIntervalMs <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %dms", c.Session.HeartbeatIntervalMs)
	}
	if c.Session.NotificationPollTicks <= 0 {
		c.Session.NotificationPollTicks = NotificationPollTicks
	}
	return nil
}

// ApplyOverrides replaces settings given on the command line. Empty
// values keep the loaded setting.
func (c *AppConfig) ApplyOverrides(baseURL, logLevel string) {
	if baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("session", cfg.Session)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

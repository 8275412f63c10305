package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultIdleTimeoutMs, cfg.Session.IdleTimeoutMs)
	assert.Equal(t, 60, cfg.Session.WarningTicks())
	assert.Equal(t, 300, cfg.Session.HeartbeatTicks())
	assert.Equal(t, NotificationPollTicks, cfg.Session.NotificationPollTicks)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("IDLE_TIMEOUT", "120000")
	t.Setenv("IDLE_WARNING_COUNTDOWN", "30000")
	t.Setenv("HEARTBEAT_INTERVAL", "45500")
	t.Setenv("API_BASE_URL", "http://backend.test")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 120000, cfg.Session.IdleTimeoutMs)
	assert.Equal(t, 30, cfg.Session.WarningTicks())
	assert.Equal(t, 45, cfg.Session.HeartbeatTicks())
	assert.Equal(t, "http://backend.test", cfg.API.BaseURL)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.API.BaseURL = "https://erp.example.com/api"
	cfg.Session.IdleTimeoutMs = 600000
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://erp.example.com/api", loaded.API.BaseURL)
	assert.Equal(t, 600000, loaded.Session.IdleTimeoutMs)
}

func TestApplyOverrides_SavedSettingsReload(t *testing.T) {
	for _, env := range []string{"API_BASE_URL", "LOG_LEVEL", "IDLE_TIMEOUT"} {
		t.Setenv(env, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.ApplyOverrides("https://erp.internal/api", "")
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://erp.internal/api", loaded.API.BaseURL)
	assert.Equal(t, "info", loaded.Log.Level)
	assert.Equal(t, DefaultIdleTimeoutMs, loaded.Session.IdleTimeoutMs)
}

func TestValidate_RejectsNonPositiveTimings(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Session.HeartbeatIntervalMs = 0
	assert.Error(t, cfg.Validate())
}

func TestMsToTicks_NeverBelowOne(t *testing.T) {
	assert.Equal(t, 1, msToTicks(400))
	assert.Equal(t, 900, msToTicks(900000))
}

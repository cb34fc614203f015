package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AEGIS_DB_PATH", filepath.Join(t.TempDir(), "aegis.db"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 256*1024, cfg.MaxSourceBytes)
	assert.Equal(t, 2500, cfg.MaxRulesets)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.RetentionSchedule)
	assert.Empty(t, cfg.NotifyURLs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AEGIS_ENV", "production")
	t.Setenv("AEGIS_HTTP_PORT", "9090")
	t.Setenv("AEGIS_DB_PATH", filepath.Join(t.TempDir(), "custom.db"))
	t.Setenv("AEGIS_DEBUG", "true")
	t.Setenv("AEGIS_MAX_RULESETS", "10")
	t.Setenv("AEGIS_RETENTION_DAYS", "7")
	t.Setenv("AEGIS_NOTIFY_URLS", "discord://token@channel, slack://hook")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 10, cfg.MaxRulesets)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, []string{"discord://token@channel", "slack://hook"}, cfg.NotifyURLs)
}

func TestLoadRejectsBadInt(t *testing.T) {
	t.Setenv("AEGIS_DB_PATH", filepath.Join(t.TempDir(), "aegis.db"))
	t.Setenv("AEGIS_MAX_RULESETS", "plenty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AEGIS_MAX_RULESETS")
}

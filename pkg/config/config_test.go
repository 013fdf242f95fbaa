package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KEYSAFE_CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DefaultProject)
	assert.Equal(t, 60*60*24*30, cfg.DefaultRotationSeconds)
	assert.Equal(t, "@hourly", cfg.RotationSweepSchedule)
	assert.Equal(t, 480, cfg.TokenTTLSeconds)
	assert.Equal(t, "default", cfg.Source("default_project"))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
default_project: p1
default_rotation_seconds: 3600
rotation_sweep_schedule: "@daily"
token_ttl: 120
trusted_proxies:
  - 10.0.0.0/8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0600))
	t.Setenv("KEYSAFE_CONFIG_PATH", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "p1", cfg.DefaultProject)
	assert.Equal(t, 3600, cfg.DefaultRotationSeconds)
	assert.Equal(t, "@daily", cfg.RotationSweepSchedule)
	assert.Equal(t, 120, cfg.TokenTTLSeconds)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
	assert.Equal(t, "file", cfg.Source("default_project"))
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("default_project: p1\n"), 0600))
	t.Setenv("KEYSAFE_CONFIG_PATH", dir)
	t.Setenv("KEYSAFE_DEFAULT_PROJECT", "p2")
	t.Setenv("KEYSAFE_TOKEN_TTL", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "p2", cfg.DefaultProject)
	assert.Equal(t, "environment", cfg.Source("default_project"))
	assert.Equal(t, 60, cfg.TokenTTLSeconds)
	assert.Equal(t, "environment", cfg.Source("token_ttl"))
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not yaml"), 0600))
	t.Setenv("KEYSAFE_CONFIG_PATH", dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := newDefault()
	assert.NoError(t, cfg.Validate())

	cfg = newDefault()
	cfg.TrustedProxies = []string{"not-a-cidr"}
	assert.Error(t, cfg.Validate())

	cfg = newDefault()
	cfg.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.1"}
	assert.NoError(t, cfg.Validate())

	cfg = newDefault()
	cfg.DefaultRotationSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = newDefault()
	cfg.RotationSweepSchedule = "not a schedule"
	assert.Error(t, cfg.Validate())

	cfg = newDefault()
	cfg.RotationSweepSchedule = ""
	assert.NoError(t, cfg.Validate())
}

func TestIsTrustedProxy(t *testing.T) {
	cfg := newDefault()
	cfg.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.1"}

	assert.True(t, cfg.IsTrustedProxy("10.1.2.3"))
	assert.True(t, cfg.IsTrustedProxy("192.168.1.1"))
	assert.False(t, cfg.IsTrustedProxy("172.16.0.1"))
	assert.False(t, cfg.IsTrustedProxy("not-an-ip"))

	cfg.TrustedProxies = nil
	assert.False(t, cfg.IsTrustedProxy("10.1.2.3"))
}

func TestDurationHelpers(t *testing.T) {
	cfg := newDefault()
	cfg.TokenTTLSeconds = 120
	cfg.DefaultRotationSeconds = 3600

	assert.Equal(t, "2m0s", cfg.TokenTTL().String())
	assert.Equal(t, "1h0m0s", cfg.DefaultRotation().String())
}

func TestFormatText(t *testing.T) {
	t.Setenv("KEYSAFE_CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	text := cfg.FormatText()
	assert.Contains(t, text, "default_project")
	assert.Contains(t, text, "(not set)")
	assert.Contains(t, text, "SOURCE")
}

func TestFormatJSON(t *testing.T) {
	t.Setenv("KEYSAFE_CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	out, err := cfg.FormatJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"rotation_sweep_schedule"`)
	assert.Contains(t, out, `"@hourly"`)
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "icl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:25010", cfg.Address)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.Backoff.Initial)
	assert.Equal(t, 0.25, cfg.Backoff.Jitter)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Empty(t, cfg.ConfigPath)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
address: ws://192.168.1.20:25010
request_timeout: 5s
auto_reconnect: true
backoff:
  initial: 250ms
  max: 10s
log_level: debug
protocol_log: /tmp/session.ilog
discovery:
  timeout: 2s
  interface: eth0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigPath)
	assert.Equal(t, "ws://192.168.1.20:25010", cfg.Address)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.AutoReconnect)
	assert.Equal(t, 250*time.Millisecond, cfg.Backoff.Initial)
	assert.Equal(t, 10*time.Second, cfg.Backoff.Max)
	assert.Equal(t, 2.0, cfg.Backoff.Multiplier)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "eth0", cfg.Discovery.Interface)
	assert.Equal(t, 2*time.Second, cfg.Discovery.Timeout)

	mc := cfg.ManagerConfig()
	assert.Equal(t, cfg.Address, mc.Address)
	assert.True(t, mc.AutoReconnect)
	assert.Equal(t, 250*time.Millisecond, mc.Backoff.Initial)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "address: ws://10.0.0.1:25010\n")
	t.Setenv("ICL_ADDRESS", "ws://10.0.0.2:25010")
	t.Setenv("ICL_BACKOFF_MAX", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.2:25010", cfg.Address)
	assert.Equal(t, 3*time.Second, cfg.Backoff.Max)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name    string
		content string
	}{
		{"http address", "address: http://localhost:25010\n"},
		{"no host", "address: ws://\n"},
		{"zero timeout", "request_timeout: 0s\n"},
		{"bad level", "log_level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

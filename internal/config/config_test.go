package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nagwatch.yaml")
	writeFile(t, path, "nagios:\n  status_file: /tmp/status.dat\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/status.dat", cfg.Nagios.StatusFile)
	assert.Equal(t, "/usr/local/nagios/var/rw/nagios.cmd", cfg.Nagios.CommandFile)
	assert.Equal(t, 10*time.Second, cfg.Nagios.MaxCacheAge)
	assert.False(t, cfg.Nagios.SkipUnknownBlocks)
	assert.Equal(t, ":8000", cfg.Server.Port)
	assert.Equal(t, "./data/nagwatch.db", cfg.Database.Path)
	assert.Equal(t, 30*24*time.Hour, cfg.Database.HistoryRetention)
	assert.Equal(t, 30*time.Second, cfg.Monitoring.PollInterval)
	assert.Equal(t, "/metrics", cfg.Prometheus.MetricsPath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFullFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nagwatch.yaml")
	writeFile(t, path, `
nagios:
  status_file: /var/lib/nagios/status.dat
  command_file: /var/lib/nagios/rw/nagios.cmd
  max_cache_age: 1m
  skip_unknown_blocks: true
server:
  port: ":9100"
  read_timeout: 5s
database:
  path: /var/lib/nagwatch/journal.db
  history_retention: 72h
  cleanup_interval: 10m
prometheus:
  enabled: true
  metrics_path: /prom
monitoring:
  poll_interval: 15s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Nagios.MaxCacheAge)
	assert.True(t, cfg.Nagios.SkipUnknownBlocks)
	assert.Equal(t, ":9100", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 72*time.Hour, cfg.Database.HistoryRetention)
	assert.Equal(t, 10*time.Minute, cfg.Database.CleanupInterval)
	assert.True(t, cfg.Prometheus.Enabled)
	assert.Equal(t, "/prom", cfg.Prometheus.MetricsPath)
	assert.Equal(t, 15*time.Second, cfg.Monitoring.PollInterval)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadIncludes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nagwatch.yaml")
	writeFile(t, path, `
nagios:
  status_file: /main/status.dat
logging:
  level: info
include:
  enabled: true
  directory: conf.d
`)
	writeFile(t, filepath.Join(dir, "conf.d", "10-site.yaml"), "nagios:\n  status_file: /site/status.dat\nlogging:\n  level: warn\n")
	writeFile(t, filepath.Join(dir, "conf.d", "20-debug.yml"), "logging:\n  level: debug\n")
	writeFile(t, filepath.Join(dir, "conf.d", "ignored.txt"), "logging:\n  level: error\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/site/status.dat", cfg.Nagios.StatusFile)
	assert.Equal(t, "debug", cfg.Logging.Level, "includes apply in file name order")
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestIncludesKeepUnsetBooleans(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nagwatch.yaml")
	writeFile(t, path, `
nagios:
  skip_unknown_blocks: true
prometheus:
  enabled: true
include:
  enabled: true
  directory: conf.d
`)
	writeFile(t, filepath.Join(dir, "conf.d", "10-paths.yaml"),
		"nagios:\n  status_file: /site/status.dat\nprometheus:\n  metrics_path: /prom\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/site/status.dat", cfg.Nagios.StatusFile)
	assert.True(t, cfg.Nagios.SkipUnknownBlocks)
	assert.Equal(t, "/prom", cfg.Prometheus.MetricsPath)
	assert.True(t, cfg.Prometheus.Enabled)

	writeFile(t, filepath.Join(dir, "conf.d", "20-off.yaml"),
		"nagios:\n  skip_unknown_blocks: false\nprometheus:\n  enabled: false\n")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Nagios.SkipUnknownBlocks, "an explicit false still applies")
	assert.False(t, cfg.Prometheus.Enabled)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "nagios: [", "failed to parse YAML"},
		{"negative cache age", "nagios:\n  max_cache_age: -1s\n", "nagios.max_cache_age"},
		{"bad log format", "logging:\n  format: xml\n", "logging.format"},
		{"bad metrics path", "prometheus:\n  metrics_path: metrics\n", "prometheus.metrics_path"},
		{"missing include dir", "include:\n  enabled: true\n  directory: nowhere\n", "include directory does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nagwatch.yaml")
			writeFile(t, path, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsValidGlobPattern(t *testing.T) {
	assert.True(t, isValidGlobPattern("*.yaml"))
	assert.False(t, isValidGlobPattern("../*.yaml"))
	assert.False(t, isValidGlobPattern("[.yaml"))
}

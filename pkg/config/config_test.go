package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 993, cfg.Server.Port)
	assert.True(t, cfg.Server.UseTLS)
	assert.Equal(t, "./context", cfg.Export.OutputDirectory)
	assert.Equal(t, 100, cfg.Export.PageSize)
	assert.Equal(t, 60, cfg.RateLimit.CommandsPerMinute)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  host: imap.example.com
  port: 143
  use_tls: false
export:
  output_directory: /tmp/out
  page_size: 25
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "imap.example.com", cfg.Server.Host)
	assert.Equal(t, 143, cfg.Server.Port)
	assert.False(t, cfg.Server.UseTLS)
	assert.Equal(t, "/tmp/out", cfg.Export.OutputDirectory)
	assert.Equal(t, 25, cfg.Export.PageSize)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Values absent from the file keep their defaults
	assert.Equal(t, 60, cfg.RateLimit.CommandsPerMinute)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MAILEXPORT_IMAP_HOST", "imap.test.com")
	t.Setenv("MAILEXPORT_IMAP_PORT", "1993")
	t.Setenv("MAILEXPORT_IMAP_TLS", "false")
	t.Setenv("MAILEXPORT_OUTPUT_DIR", "/data/context")
	t.Setenv("MAILEXPORT_PAGE_SIZE", "10")
	t.Setenv("MAILEXPORT_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "imap.test.com", cfg.Server.Host)
	assert.Equal(t, 1993, cfg.Server.Port)
	assert.False(t, cfg.Server.UseTLS)
	assert.Equal(t, "/data/context", cfg.Export.OutputDirectory)
	assert.Equal(t, 10, cfg.Export.PageSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidPort(t *testing.T) {
	t.Setenv("MAILEXPORT_IMAP_PORT", "not-a-number")

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromEnv())
}

func TestApplyFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyFlags(map[string]interface{}{
		"output":    "/flag/out",
		"page-size": 42,
		"log-level": "debug",
	})

	assert.Equal(t, "/flag/out", cfg.Export.OutputDirectory)
	assert.Equal(t, 42, cfg.Export.PageSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  page_size: 25\n"), 0644))

	t.Setenv("MAILEXPORT_PAGE_SIZE", "50")

	// Flags beat env, env beats file, file beats defaults
	cfg, err := Load(path, map[string]interface{}{"output": "/from/flag"})
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Export.PageSize)
	assert.Equal(t, "/from/flag", cfg.Export.OutputDirectory)
	assert.Equal(t, 993, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"zero page size", func(c *Config) { c.Export.PageSize = 0 }},
		{"empty output dir", func(c *Config) { c.Export.OutputDirectory = "" }},
		{"zero rate limit", func(c *Config) { c.RateLimit.CommandsPerMinute = 0 }},
		{"negative retries", func(c *Config) { c.Retry.MaxAttempts = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Host = "imap.example.com"
	cfg.Server.Timeout = 45 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "imap.example.com", loaded.Server.Host)
	assert.Equal(t, 45*time.Second, loaded.Server.Timeout)
}

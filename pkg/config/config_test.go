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

	assert.Equal(t, "https://127.0.0.1:8300", cfg.Address)
	assert.Equal(t, "X-KVault-Token", cfg.TokenHeader)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.False(t, cfg.TLSSkipVerify)

	require.NotNil(t, cfg.Retry)
	assert.Equal(t, 2, cfg.Retry.Attempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Retry.Base)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxWait)
	assert.Equal(t, 0.25, cfg.Retry.JitterFactor)
	assert.Equal(t, []string{"connection", "server"}, cfg.Retry.RetryableErrors)

	assert.Nil(t, cfg.RateLimit)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KVAULT_ADDR", "https://kvault.example.com:8300")
	t.Setenv("KVAULT_TOKEN", "s.envtoken")
	t.Setenv("KVAULT_TIMEOUT", "30s")
	t.Setenv("KVAULT_TLS_SKIP_VERIFY", "true")
	t.Setenv("KVAULT_RETRY_ATTEMPTS", "5")
	t.Setenv("KVAULT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://kvault.example.com:8300", cfg.Address)
	assert.Equal(t, "s.envtoken", cfg.Token)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.TLSSkipVerify)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("KVAULT_TIMEOUT", "not-a-duration")
		cfg := DefaultConfig()
		assert.Error(t, cfg.LoadFromEnv())
	})

	t.Run("bad retry attempts", func(t *testing.T) {
		t.Setenv("KVAULT_RETRY_ATTEMPTS", "many")
		cfg := DefaultConfig()
		assert.Error(t, cfg.LoadFromEnv())
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
address: "https://kvault.internal:8300"
timeout: 15s
retry:
  attempts: 4
  base: 100ms
  max_wait: 5s
  jitter_factor: 0.1
  retryable_errors:
    - connection
rate_limit:
  requests_per_minute: 30
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://kvault.internal:8300", cfg.Address)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.Retry)
	assert.Equal(t, 4, cfg.Retry.Attempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.Base)
	assert.Equal(t, []string{"connection"}, cfg.Retry.RetryableErrors)
	require.NotNil(t, cfg.RateLimit)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("explicit missing path is an error", func(t *testing.T) {
		assert.Error(t, cfg.LoadFromFile("/nonexistent/config.yaml"))
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("address: [broken"), 0600))
		assert.Error(t, cfg.LoadFromFile(path))
	})
}

func TestMergeFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeFlags(map[string]interface{}{
		"address":        "https://flagged:8300",
		"token":          "s.flagtoken",
		"log-level":      "error",
		"retry-attempts": 7,
	})

	assert.Equal(t, "https://flagged:8300", cfg.Address)
	assert.Equal(t, "s.flagtoken", cfg.Token)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Retry.Attempts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"missing address", func(c *Config) { c.Address = "" }, false},
		{"non-http address", func(c *Config) { c.Address = "ftp://example.com" }, false},
		{"missing token header", func(c *Config) { c.TokenHeader = "" }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, false},
		{"zero retry attempts", func(c *Config) { c.Retry.Attempts = 0 }, false},
		{"negative base delay", func(c *Config) { c.Retry.Base = -time.Second }, false},
		{"zero max wait", func(c *Config) { c.Retry.MaxWait = 0 }, false},
		{"jitter above one", func(c *Config) { c.Retry.JitterFactor = 1.5 }, false},
		{"unknown retryable kind", func(c *Config) { c.Retry.RetryableErrors = []string{"timeout"} }, false},
		{"nil retry disables retry validation", func(c *Config) { c.Retry = nil }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit = &RateLimitConfig{} }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)

			err := cfg.Validate()
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvault", "config.yaml")

	cfg := DefaultConfig()
	cfg.Address = "https://saved.example.com:8300"
	cfg.Retry.Attempts = 4
	require.NoError(t, cfg.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, "https://saved.example.com:8300", reloaded.Address)
	assert.Equal(t, 4, reloaded.Retry.Attempts)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
address: "https://from-file:8300"
logging:
  level: warn
`), 0600))

	t.Setenv("KVAULT_ADDR", "https://from-env:8300")

	t.Run("env beats file", func(t *testing.T) {
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://from-env:8300", cfg.Address)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("flags beat env", func(t *testing.T) {
		cfg, err := Load(path, map[string]interface{}{
			"address": "https://from-flag:8300",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://from-flag:8300", cfg.Address)
	})
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`address: "not a url"`), 0600))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

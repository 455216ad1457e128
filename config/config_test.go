package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: "http",
			HTTPPort:  8080,
		},
		Sandbox: SandboxConfig{
			Backend:    "local",
			TimeoutSec: 10,
			MemoryMB:   512,
		},
		Languages: map[string]Language{
			"python": {
				Image: "python:3.11-slim",
			},
		},
		Analysis: AnalysisConfig{
			MinRemoteLength: 50,
			RateLimit:       RateLimitConfig{WindowSec: 60, MaxCalls: 10},
			Provider:        ProviderConfig{Kind: "gemini", Model: "gemini-2.0-flash", TimeoutSec: 30},
		},
		History: HistoryConfig{Enabled: true, Path: "codeprobe.db"},
		Logging: LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		require.NoError(t, validConfig().validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"InvalidServerTransport", func(c *Config) { c.Server.Transport = "invalid" }, "invalid server.transport"},
		{"InvalidHTTPPort", func(c *Config) { c.Server.HTTPPort = 70000 }, "server.http_port"},
		{"InvalidSandboxTimeout", func(c *Config) { c.Sandbox.TimeoutSec = 0 }, "sandbox.timeout_sec must be positive"},
		{"InvalidMemory", func(c *Config) { c.Sandbox.MemoryMB = -1 }, "sandbox.memory_mb must be positive"},
		{"UnsupportedBackend", func(c *Config) { c.Sandbox.Backend = "kubernetes" }, "unsupported sandbox.backend"},
		{"NegativeMinRemoteLength", func(c *Config) { c.Analysis.MinRemoteLength = -5 }, "analysis.min_remote_length"},
		{"InvalidRateLimit", func(c *Config) { c.Analysis.RateLimit.MaxCalls = 0 }, "analysis.rate_limit"},
		{"InvalidProviderKind", func(c *Config) { c.Analysis.Provider.Kind = "claude" }, "invalid analysis.provider.kind"},
		{"HistoryWithoutPath", func(c *Config) { c.History.Path = "" }, "history.path is required"},
		{"InvalidLoggingMode", func(c *Config) { c.Logging.Mode = "verbose" }, "invalid logging.mode"},
		{"InvalidLoggingLevel", func(c *Config) { c.Logging.Level = "trace" }, "invalid logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("HistoryDisabledWithoutPath", func(t *testing.T) {
		cfg := validConfig()
		cfg.History = HistoryConfig{Enabled: false}
		require.NoError(t, cfg.validate())
	})
}

func TestNewDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, 5000, cfg.Server.HTTPPort)
	assert.Equal(t, "local", cfg.Sandbox.Backend)
	assert.Equal(t, 10*time.Second, cfg.GetTimeout())
	assert.Equal(t, 50, cfg.Analysis.MinRemoteLength)
	assert.Equal(t, time.Minute, cfg.RateWindow())
	assert.Equal(t, 10, cfg.Analysis.RateLimit.MaxCalls)
	assert.Equal(t, "gemini", cfg.Analysis.Provider.Kind)
	assert.Equal(t, "gemini-2.0-flash", cfg.Analysis.Provider.Model)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout())
	assert.Equal(t, "production", cfg.Logging.Mode)
}

func TestNewEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_EXECUTION_TIME", "4")
	t.Setenv("GEMINI_API_KEY", "secret-key")
	t.Setenv("PORT", "9090")
	t.Setenv("CODEPROBE_LOGGING_LEVEL", "debug")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 4*time.Second, cfg.GetTimeout())
	assert.Equal(t, "secret-key", cfg.Analysis.Provider.APIKey)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestNewDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAX_EXECUTION_TIME=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MAX_EXECUTION_TIME") })

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Sandbox.TimeoutSec)
}

func TestNewFromFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "codeprobe.yaml")
	doc := `
server:
  transport: stdio
sandbox:
  backend: docker
  timeout_sec: 20
languages:
  python:
    image: python:3.12-slim
    run_cmd: python3 -u {{source}}
    environment:
      - PYTHONHASHSEED=0
analysis:
  provider:
    kind: openai
    base_url: http://localhost:8000
    model: qwen
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "docker", cfg.Sandbox.Backend)
	assert.Equal(t, 20, cfg.Sandbox.TimeoutSec)
	require.Contains(t, cfg.Languages, "python")
	assert.Equal(t, "python:3.12-slim", cfg.Languages["python"].Image)
	assert.Equal(t, "python3 -u {{source}}", cfg.Languages["python"].RunCmd)
	assert.Equal(t, []string{"PYTHONHASHSEED=0"}, cfg.Languages["python"].Environment)
	assert.Equal(t, "openai", cfg.Analysis.Provider.Kind)
	assert.Equal(t, "qwen", cfg.Analysis.Provider.Model)
}

func TestNewInvalidFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sandbox:\n  backend: firecracker\n"), 0o600))

	_, err := NewFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation error")
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig        `mapstructure:"server"`
	Sandbox   SandboxConfig       `mapstructure:"sandbox"`
	Languages map[string]Language `mapstructure:"languages"`
	Analysis  AnalysisConfig      `mapstructure:"analysis"`
	History   HistoryConfig       `mapstructure:"history"`
	Logging   LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	Backend        string `mapstructure:"backend"`
	TimeoutSec     int    `mapstructure:"timeout_sec"`
	MemoryMB       int    `mapstructure:"memory_mb"`
	NetworkEnabled bool   `mapstructure:"network_enabled"`
	// Host overrides the container engine endpoint, e.g. unix:///run/podman/podman.sock
	Host string `mapstructure:"host"`
}

// Language overrides the built-in toolchain of one language. Empty fields
// keep the defaults. Environment entries use the KEY=VALUE form since viper
// lowercases map keys.
type Language struct {
	Image       string   `mapstructure:"image"`
	BuildCmd    string   `mapstructure:"build_cmd"`
	RunCmd      string   `mapstructure:"run_cmd"`
	Environment []string `mapstructure:"environment"`
}

// AnalysisConfig holds static analysis and AI provider settings
type AnalysisConfig struct {
	RulesPath       string          `mapstructure:"rules_path"`
	MinRemoteLength int             `mapstructure:"min_remote_length"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
	Provider        ProviderConfig  `mapstructure:"provider"`
}

// RateLimitConfig bounds calls to the AI provider
type RateLimitConfig struct {
	WindowSec int `mapstructure:"window_sec"`
	MaxCalls  int `mapstructure:"max_calls"`
}

// ProviderConfig selects the AI provider. An empty APIKey disables remote
// analysis.
type ProviderConfig struct {
	Kind       string `mapstructure:"kind"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// HistoryConfig controls persistence of analysis results
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration from config.yaml in
// the working directory or ./config, a .env file and the environment
func New() (*Config, error) {
	return load("")
}

// NewFromFile is New with an explicit config file
func NewFromFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix("CODEPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names kept from earlier deployments
	bindings := map[string]string{
		"sandbox.timeout_sec":       "MAX_EXECUTION_TIME",
		"analysis.provider.api_key": "GEMINI_API_KEY",
		"server.http_port":          "PORT",
	}
	for key, legacy := range bindings {
		envKey := "CODEPROBE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", legacy, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "http")
	v.SetDefault("server.http_port", 5000)

	v.SetDefault("sandbox.backend", "local")
	v.SetDefault("sandbox.timeout_sec", 10)
	v.SetDefault("sandbox.memory_mb", 512)
	v.SetDefault("sandbox.network_enabled", false)
	v.SetDefault("sandbox.host", "")

	v.SetDefault("analysis.rules_path", "")
	v.SetDefault("analysis.min_remote_length", 50)
	v.SetDefault("analysis.rate_limit.window_sec", 60)
	v.SetDefault("analysis.rate_limit.max_calls", 10)
	v.SetDefault("analysis.provider.kind", "gemini")
	v.SetDefault("analysis.provider.api_key", "")
	v.SetDefault("analysis.provider.base_url", "")
	v.SetDefault("analysis.provider.model", "gemini-2.0-flash")
	v.SetDefault("analysis.provider.timeout_sec", 30)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "codeprobe.db")

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be between 1 and 65535, got: %d", c.Server.HTTPPort)
	}

	if c.Sandbox.TimeoutSec <= 0 {
		return fmt.Errorf("sandbox.timeout_sec must be positive, got: %d", c.Sandbox.TimeoutSec)
	}

	if c.Sandbox.MemoryMB <= 0 {
		return fmt.Errorf("sandbox.memory_mb must be positive, got: %d", c.Sandbox.MemoryMB)
	}

	switch c.Sandbox.Backend {
	case "local", "docker", "podman":
	default:
		return fmt.Errorf("unsupported sandbox.backend: %s, must be 'local', 'docker' or 'podman'", c.Sandbox.Backend)
	}

	if c.Analysis.MinRemoteLength < 0 {
		return fmt.Errorf("analysis.min_remote_length must not be negative, got: %d", c.Analysis.MinRemoteLength)
	}

	if c.Analysis.RateLimit.WindowSec <= 0 || c.Analysis.RateLimit.MaxCalls <= 0 {
		return fmt.Errorf("analysis.rate_limit window_sec and max_calls must be positive, got: %d, %d",
			c.Analysis.RateLimit.WindowSec, c.Analysis.RateLimit.MaxCalls)
	}

	switch c.Analysis.Provider.Kind {
	case "gemini", "openai":
	default:
		return fmt.Errorf("invalid analysis.provider.kind: %s, must be 'gemini' or 'openai'", c.Analysis.Provider.Kind)
	}

	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path is required when history is enabled")
	}

	if c.Logging.Mode != "development" && c.Logging.Mode != "production" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'development' or 'production'", c.Logging.Mode)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s, must be one of 'debug', 'info', 'warn', 'error'", c.Logging.Level)
	}

	return nil
}

// GetTimeout returns the execution timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSec) * time.Second
}

// RateWindow returns the rate limit window as a duration
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Analysis.RateLimit.WindowSec) * time.Second
}

// ProviderTimeout returns the AI provider request timeout
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Analysis.Provider.TimeoutSec) * time.Second
}

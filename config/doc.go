// Package config provides application configuration management.
//
// The config package loads configuration from a YAML file, a .env file and
// environment variables, then validates it. It covers server transport, the
// sandbox backend and timeout, per-language toolchain overrides, static and
// AI-assisted analysis, history persistence and logging.
//
// Environment variables use the CODEPROBE_ prefix with dots replaced by
// underscores (CODEPROBE_SANDBOX_BACKEND). MAX_EXECUTION_TIME, GEMINI_API_KEY
// and PORT are also honoured.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Server transport: %s\n", cfg.Server.Transport)
package config

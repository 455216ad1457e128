package provider

import (
	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/config"
)

// DefaultOpenAIBaseURL is used when an openai provider has no base_url
const DefaultOpenAIBaseURL = "https://api.openai.com"

// NewFromConfig returns the configured Generator, or nil when no API key is
// set and remote analysis is disabled
func NewFromConfig(cfg *config.Config, logger *zap.Logger) Generator {
	pc := cfg.Analysis.Provider
	if pc.APIKey == "" {
		logger.Info("No AI provider credential configured, using local analysis only")
		return nil
	}

	switch pc.Kind {
	case "openai":
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = DefaultOpenAIBaseURL
		}
		logger.Info("Using OpenAI-compatible provider", zap.String("base_url", baseURL), zap.String("model", pc.Model))
		return NewOpenAIClient(baseURL, pc.APIKey, pc.Model, cfg.ProviderTimeout())
	default:
		logger.Info("Using Gemini provider", zap.String("model", pc.Model))
		return NewGeminiClient(pc.BaseURL, pc.APIKey, pc.Model, cfg.ProviderTimeout())
	}
}

// Vendor names the company behind g for display. A nil Generator means
// analysis runs locally.
func Vendor(g Generator) string {
	switch g.(type) {
	case *GeminiClient:
		return "Google"
	case *OpenAIClient:
		return "OpenAI"
	case nil:
		return "Local"
	default:
		return "Custom"
	}
}

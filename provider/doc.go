// Package provider contains clients for remote AI text generation.
//
// A Generator turns a prompt into text. GeminiClient talks to the Gemini
// generateContent REST API and OpenAIClient to any OpenAI-compatible Chat
// Completions backend. Every failure, including timeouts and empty answers,
// is returned as a *ProviderError so callers can degrade gracefully.
package provider

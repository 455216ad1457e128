package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/codeprobe/config"
)

func TestGeminiClient(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
			assert.Equal(t, "k3y", r.URL.Query().Get("key"))

			var req geminiRequest
			if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.Len(t, req.Contents, 1) {
				assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Looks "},{"text":"fine"}]}}]}`))
		}))
		defer srv.Close()

		client := NewGeminiClient(srv.URL, "k3y", "", time.Second)
		assert.Equal(t, DefaultGeminiModel, client.Model())

		text, err := client.Generate(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "Looks fine", text)
	})

	t.Run("HTTPError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted"}}`))
		}))
		defer srv.Close()

		_, err := NewGeminiClient(srv.URL, "k", "m", time.Second).Generate(context.Background(), "p")
		require.Error(t, err)

		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
		assert.Equal(t, "Resource has been exhausted", perr.Message)
		assert.True(t, perr.Throttled())
	})

	t.Run("EmptyCandidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		_, err := NewGeminiClient(srv.URL, "k", "m", time.Second).Generate(context.Background(), "p")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyResponse))
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := NewGeminiClient(srv.URL, "k", "m", 5*time.Second).Generate(ctx, "p")
		require.Error(t, err)

		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "request timed out", perr.Message)
	})
}

func TestOpenAIClient(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var req chatRequest
			if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.Len(t, req.Messages, 1) {
				assert.Equal(t, "qwen", req.Model)
				assert.Equal(t, "user", req.Messages[0].Role)
			}

			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"All good"}}]}`))
		}))
		defer srv.Close()

		client := NewOpenAIClient(srv.URL+"/", "sk-test", "qwen", time.Second)
		text, err := client.Generate(context.Background(), "review")
		require.NoError(t, err)
		assert.Equal(t, "All good", text)
		assert.Equal(t, "qwen", client.Model())
	})

	t.Run("ServerErrorWithoutBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewOpenAIClient(srv.URL, "", "m", time.Second).Generate(context.Background(), "p")

		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
		assert.Equal(t, "Bad Gateway", perr.Message)
		assert.False(t, perr.Throttled())
		assert.Contains(t, perr.Error(), "openai: status 502")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := NewOpenAIClient(srv.URL, "", "m", time.Second).Generate(context.Background(), "p")

		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "failed to parse response", perr.Message)
	})
}

func TestNewFromConfig(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("NoAPIKey", func(t *testing.T) {
		cfg := &config.Config{Analysis: config.AnalysisConfig{Provider: config.ProviderConfig{Kind: "gemini"}}}
		assert.Nil(t, NewFromConfig(cfg, logger))
	})

	t.Run("Gemini", func(t *testing.T) {
		cfg := &config.Config{Analysis: config.AnalysisConfig{Provider: config.ProviderConfig{
			Kind: "gemini", APIKey: "k", Model: "gemini-2.0-flash", TimeoutSec: 5,
		}}}
		gen := NewFromConfig(cfg, logger)
		require.IsType(t, &GeminiClient{}, gen)
		assert.Equal(t, "gemini-2.0-flash", gen.Model())
	})

	t.Run("OpenAIDefaultsBaseURL", func(t *testing.T) {
		cfg := &config.Config{Analysis: config.AnalysisConfig{Provider: config.ProviderConfig{
			Kind: "openai", APIKey: "k", Model: "gpt-4o-mini",
		}}}
		gen := NewFromConfig(cfg, logger)
		require.IsType(t, &OpenAIClient{}, gen)
		assert.Equal(t, DefaultOpenAIBaseURL, gen.(*OpenAIClient).baseURL)
	})
}

func TestVendor(t *testing.T) {
	assert.Equal(t, "Google", Vendor(NewGeminiClient("", "k", "", time.Second)))
	assert.Equal(t, "OpenAI", Vendor(NewOpenAIClient("http://localhost", "k", "m", time.Second)))
	assert.Equal(t, "Local", Vendor(nil))
}

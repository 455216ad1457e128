package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Generator is a remote text generation capability
type Generator interface {
	// Generate returns the model output for prompt. Every failure is a
	// *ProviderError.
	Generate(ctx context.Context, prompt string) (string, error)
	// Model returns the model name used in report labels
	Model() string
}

// ErrEmptyResponse is wrapped by a ProviderError when the backend answers
// without any text
var ErrEmptyResponse = errors.New("empty response from provider")

// ProviderError describes a failed remote call
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Throttled reports whether the backend rejected the call for quota reasons
func (e *ProviderError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 64 << 10

// mapHTTPError converts a non-2xx response into a ProviderError. Gemini and
// OpenAI-compatible backends both report {"error": {"message": ...}}.
func mapHTTPError(name string, resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := http.StatusText(resp.StatusCode)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		message = payload.Error.Message
	}

	return &ProviderError{Provider: name, StatusCode: resp.StatusCode, Message: message}
}

func mapNetworkError(name string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: name, Message: "request timed out", Err: err}
	}
	return &ProviderError{Provider: name, Message: "request failed", Err: err}
}

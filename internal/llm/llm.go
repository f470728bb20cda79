// Package llm provides single-shot text completion against the supported
// model providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/blackwell-systems/readmegen/internal/config"
)

// apiTimeout bounds a single completion round trip.
const apiTimeout = 60 * time.Second

// ErrMissingAPIKey is returned by New when no credential is configured.
var ErrMissingAPIKey = config.ErrMissingAPIKey

// ErrEmptyCompletion is returned when the provider answers without text.
var ErrEmptyCompletion = errors.New("no text content in API response")

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer returns a single text completion for a request. Implementations
// make exactly one attempt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Status, truncate(e.Body, 300))
}

// New builds the completion client for the configured provider. The client
// is created once per process and shared by every generator.
func New(ctx context.Context, cfg config.LLM) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingAPIKey, cfg.Provider)
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultModels[cfg.Provider]
	}

	httpClient := &http.Client{Timeout: apiTimeout}

	switch cfg.Provider {
	case config.ProviderAnthropic, "":
		return NewAnthropic(cfg.APIKey, model, cfg.BaseURL, httpClient), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, model, cfg.BaseURL, httpClient), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// StripFences removes a Markdown code fence wrapped around text. Whatever
// follows the opening fence on its line (a language tag such as "json",
// "JSON" or "jsonc") is dropped with it.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		// Single-line fence: drop a tag glued to the body.
		text = strings.TrimSuffix(text, "```")
		if body := strings.TrimLeftFunc(text, unicode.IsLetter); strings.TrimSpace(body) != "" {
			text = body
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"
)

// Anthropic calls the Claude Messages API.
type Anthropic struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropic creates a Messages API client. An empty baseURL selects the
// public endpoint.
func NewAnthropic(apiKey, model, baseURL string, httpClient *http.Client) *Anthropic {
	if baseURL == "" {
		baseURL = anthropicAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: apiTimeout}
	}
	return &Anthropic{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Model returns the configured model name.
func (a *Anthropic) Model() string { return a.model }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string                  `json:"id"`
	Type    string                  `json:"type"`
	Content []anthropicContentBlock `json:"content"`
	Error   *anthropicError         `json:"error,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete sends one Messages API request and returns the concatenated text
// blocks of the answer.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	bodyBytes, err := json.Marshal(anthropicRequest{
		Model:       a.model,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Temperature: req.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Provider: "anthropic", Status: resp.StatusCode, Body: string(respBytes)}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("API error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var textParts []string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(textParts, ""))
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

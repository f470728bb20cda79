package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini is a thin wrapper around the official genai client.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini creates a Gemini API client. baseURL overrides the API endpoint
// when non-empty.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Gemini{cli: cli, model: model}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// Complete sends one GenerateContent request.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), gc)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

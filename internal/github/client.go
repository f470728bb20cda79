// Package github opens README pull requests through the GitHub REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIURL = "https://api.github.com"
	apiTimeout    = 30 * time.Second
	apiVersion    = "2022-11-28"
)

// APIError is a non-2xx answer to one step of the PR flow.
type APIError struct {
	Step   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("github %s: status %d: %s", e.Step, e.Status, body)
}

// Client talks to one repository. Repository is "owner/name".
type Client struct {
	BaseURL    string
	Token      string
	Repository string
	HTTPClient *http.Client
}

// NewClient returns a client for repository. An empty baseURL selects the
// public API.
func NewClient(baseURL, token, repository string) *Client {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		Repository: repository,
		HTTPClient: &http.Client{Timeout: apiTimeout},
	}
}

// do sends one request. in, when non-nil, is JSON-encoded as the body; out,
// when non-nil, receives the decoded answer. Statuses listed in allow are
// returned without error and without decoding.
func (c *Client) do(ctx context.Context, step, method, path string, in, out any, allow ...int) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("github %s: marshaling request: %w", step, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("github %s: creating request: %w", step, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: apiTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("github %s: %w", step, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("github %s: reading response: %w", step, err)
	}

	for _, s := range allow {
		if resp.StatusCode == s {
			return resp.StatusCode, nil
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &APIError{Step: step, Status: resp.StatusCode, Body: string(respBytes)}
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return resp.StatusCode, fmt.Errorf("github %s: decoding response: %w", step, err)
		}
	}
	return resp.StatusCode, nil
}

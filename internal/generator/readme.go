// Package generator turns commit history and a repository scan into README
// prose and structured project metadata using an LLM.
package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/blackwell-systems/readmegen/internal/llm"
)

const (
	readmeMaxTokens   = 1200
	readmeTemperature = 0.7
)

// ReadmeErrorPrefix starts the README body written when generation fails.
const ReadmeErrorPrefix = "Error generating README:"

const readmeSystemPrompt = "You are a helpful assistant that generates README content from commit messages."

// ReadmeError reports a failed README generation.
type ReadmeError struct {
	Err error
}

func (e *ReadmeError) Error() string {
	return "generating README: " + e.Err.Error()
}

func (e *ReadmeError) Unwrap() error { return e.Err }

// GenerateReadme asks the model for README Markdown describing commits.
// When existing holds a prior README (after trimming) the model is asked to
// update it rather than write from scratch. Exactly one request is made.
func GenerateReadme(ctx context.Context, c llm.Completer, commits []string, existing string) (string, error) {
	prompt := buildReadmePrompt(commits, existing)

	text, err := c.Complete(ctx, llm.Request{
		System:      readmeSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   readmeMaxTokens,
		Temperature: readmeTemperature,
	})
	if err != nil {
		return "", &ReadmeError{Err: err}
	}
	return strings.TrimSpace(text), nil
}

// ReadmeBody returns the text to write as the README: the generated content,
// or "Error generating README: <message>" when generation failed.
func ReadmeBody(content string, err error) string {
	if err == nil {
		return content
	}
	msg := err.Error()
	var re *ReadmeError
	if errors.As(err, &re) {
		msg = re.Err.Error()
	}
	return ReadmeErrorPrefix + " " + msg
}

// IsErrorBody reports whether a README body is the failure placeholder.
func IsErrorBody(body string) bool {
	return strings.HasPrefix(body, ReadmeErrorPrefix)
}

func buildReadmePrompt(commits []string, existing string) string {
	var summary strings.Builder
	for i, c := range commits {
		if i > 0 {
			summary.WriteString("\n")
		}
		summary.WriteString("- " + c)
	}

	var sb strings.Builder
	if strings.TrimSpace(existing) != "" {
		sb.WriteString("Based on these recent commit messages, update the existing README.md content:\n\n")
		sb.WriteString("Recent commits:\n")
		sb.WriteString(summary.String())
		sb.WriteString("\n\nExisting README content:\n")
		sb.WriteString(existing)
		sb.WriteString("\n\nPlease:\n")
		sb.WriteString("1. Preserve any important existing information (project description, setup instructions, etc.)\n")
		sb.WriteString("2. Update or add new features based on the recent commits\n")
		sb.WriteString("3. Maintain consistency in tone and structure\n")
		sb.WriteString("4. Add new sections if the commits suggest new functionality\n")
		sb.WriteString("5. Keep all existing sections that are still relevant\n")
	} else {
		sb.WriteString("Based on these commit messages, generate a clear and informative README.md content:\n\n")
		sb.WriteString(summary.String())
		sb.WriteString("\n\nPlease include:\n")
		sb.WriteString("1. A brief project description\n")
		sb.WriteString("2. Key features based on the commits\n")
		sb.WriteString("3. Setup/installation instructions if applicable\n")
		sb.WriteString("4. Dependencies or requirements\n")
		sb.WriteString("5. Usage examples if relevant\n")
	}
	sb.WriteString("Format the response in proper Markdown.\n")

	return sb.String()
}

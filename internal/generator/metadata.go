package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/readmegen/internal/llm"
	"github.com/blackwell-systems/readmegen/internal/scanner"
)

const (
	metadataMaxTokens   = 300
	metadataTemperature = 0.3

	// PromptVersion tags metadata produced by the current prompt.
	PromptVersion = "v1"

	maxExtensions     = 10
	maxPromptCommits  = 20
	maxPromptListings = 5
)

// Generation status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Categories is the closed set of project categories.
var Categories = []string{
	"web-app", "cli-tool", "library", "automation", "devops", "data-science", "other",
}

// Metadata is the structured project description produced by the model,
// stamped with generation telemetry.
type Metadata struct {
	Tags            []string `json:"tags"`
	Category        string   `json:"category"`
	ProjectType     string   `json:"project_type"`
	TechStack       []string `json:"tech_stack"`
	PrimaryLanguage string   `json:"primary_language"`
	Description     string   `json:"description"`
	MLGeneratedAt   string   `json:"ml_generated_at"`
	MLModel         string   `json:"ml_model"`
	MLLatencyMS     int64    `json:"ml_latency_ms"`
	MLStatus        string   `json:"ml_status"`
	MLError         string   `json:"ml_error,omitempty"`
	PromptVersion   string   `json:"prompt_version,omitempty"`
}

// Succeeded reports whether the metadata came from a parsed model answer.
func (m Metadata) Succeeded() bool {
	return m.MLStatus == StatusSuccess
}

const metadataSystemPrompt = "You are a precise assistant that classifies software repositories. Respond with a single JSON object and nothing else."

// modelMetadata is the subset of Metadata the model is asked to produce.
type modelMetadata struct {
	Tags            []string `json:"tags"`
	Category        string   `json:"category"`
	ProjectType     string   `json:"project_type"`
	TechStack       []string `json:"tech_stack"`
	PrimaryLanguage string   `json:"primary_language"`
	Description     string   `json:"description"`
}

// GenerateMetadata asks the model for a JSON classification of the
// repository. It never fails: any error yields FallbackMetadata with
// status "failed". now supplies timestamps and may be nil.
func GenerateMetadata(ctx context.Context, c llm.Completer, commits []string, fileCount int, listing [][]string, now func() time.Time) Metadata {
	if now == nil {
		now = time.Now
	}

	prompt := buildMetadataPrompt(commits, fileCount, listing)

	start := time.Now()
	text, err := c.Complete(ctx, llm.Request{
		System:      metadataSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   metadataMaxTokens,
		Temperature: metadataTemperature,
	})
	latency := time.Since(start)
	if err != nil {
		return FallbackMetadata(c.Model(), err, now())
	}

	parsed, err := ParseMetadataResponse(text)
	if err != nil {
		return FallbackMetadata(c.Model(), err, now())
	}

	return Metadata{
		Tags:            parsed.Tags,
		Category:        parsed.Category,
		ProjectType:     parsed.ProjectType,
		TechStack:       parsed.TechStack,
		PrimaryLanguage: parsed.PrimaryLanguage,
		Description:     parsed.Description,
		MLGeneratedAt:   now().UTC().Format(time.RFC3339),
		MLModel:         c.Model(),
		MLLatencyMS:     latency.Milliseconds(),
		MLStatus:        StatusSuccess,
		PromptVersion:   PromptVersion,
	}
}

// ErrEmptyMetadata is returned for a reply with neither a category nor a
// description, such as `null` or `{}`.
var ErrEmptyMetadata = errors.New("metadata response has no category or description")

// ParseMetadataResponse decodes the model's answer after stripping code
// fences. Tags are deduplicated and an unknown category becomes "other".
func ParseMetadataResponse(text string) (Metadata, error) {
	body := llm.StripFences(text)

	var mm modelMetadata
	if err := json.Unmarshal([]byte(body), &mm); err != nil {
		return Metadata{}, fmt.Errorf("parsing metadata JSON: %w (response was: %.200s)", err, body)
	}
	if strings.TrimSpace(mm.Category) == "" && strings.TrimSpace(mm.Description) == "" {
		return Metadata{}, fmt.Errorf("parsing metadata JSON: %w (response was: %.200s)", ErrEmptyMetadata, body)
	}

	return Metadata{
		Tags:            dedupe(mm.Tags),
		Category:        normalizeCategory(mm.Category),
		ProjectType:     strings.TrimSpace(mm.ProjectType),
		TechStack:       nonNil(mm.TechStack),
		PrimaryLanguage: strings.TrimSpace(mm.PrimaryLanguage),
		Description:     strings.TrimSpace(mm.Description),
	}, nil
}

// FallbackMetadata is the fixed value used when generation fails.
func FallbackMetadata(model string, err error, at time.Time) Metadata {
	return Metadata{
		Tags:            []string{},
		Category:        "other",
		ProjectType:     "unknown",
		TechStack:       []string{},
		PrimaryLanguage: "unknown",
		Description:     "Metadata generation failed",
		MLGeneratedAt:   at.UTC().Format(time.RFC3339),
		MLModel:         model,
		MLLatencyMS:     0,
		MLStatus:        StatusFailed,
		MLError:         errText(err),
		PromptVersion:   PromptVersion,
	}
}

func buildMetadataPrompt(commits []string, fileCount int, listing [][]string) string {
	exts := scanner.ExtensionSummary(listing, maxExtensions)

	excerpt := commits
	if len(excerpt) > maxPromptCommits {
		excerpt = excerpt[:maxPromptCommits]
	}

	var sb strings.Builder
	sb.WriteString("Analyze this repository and return ONLY valid JSON, with no prose and no code fences.\n\n")

	sb.WriteString("## Repository\n\n")
	sb.WriteString(fmt.Sprintf("- Total files: %d\n", fileCount))
	if len(exts) > 0 {
		sb.WriteString(fmt.Sprintf("- File extensions: %s\n", strings.Join(exts, ", ")))
	}
	if len(listing) > 0 {
		limit := len(listing)
		if limit > maxPromptListings {
			limit = maxPromptListings
		}
		sb.WriteString(fmt.Sprintf("- Directory contents (first %d directories): %v\n", limit, listing[:limit]))
	}

	sb.WriteString("\n## Recent commits\n\n")
	for _, c := range excerpt {
		sb.WriteString("- " + c + "\n")
	}

	sb.WriteString("\n## Output schema\n\n")
	sb.WriteString(`{
  "tags": ["3-8 short lowercase keywords"],
  "category": "one of: ` + strings.Join(Categories, ", ") + `",
  "project_type": "short phrase, e.g. REST API, CLI tool, mobile app",
  "tech_stack": ["languages, frameworks and major libraries"],
  "primary_language": "main programming language",
  "description": "one sentence describing the project"
}`)
	sb.WriteString("\n")

	return sb.String()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return "other"
}

// dedupe trims tags and removes empty and repeated entries, keeping the
// first occurrence.
func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package artifact

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/readmegen/internal/generator"
)

// summarySeparator divides generated prose from the scan summary.
const summarySeparator = "\n\n---\n\n"

// ExistingReadme returns the prose part of the README at path: everything
// before the first horizontal rule line, trimmed. A missing file yields "".
func ExistingReadme(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	content := string(data)
	if before, _, found := strings.Cut(content, "\n---\n"); found {
		return strings.TrimSpace(before), nil
	}
	if strings.HasPrefix(content, "---\n") {
		return "", nil
	}
	return strings.TrimSpace(content), nil
}

// RenderReadme assembles the README text: generated content, separator,
// scan summary, and a metadata section when meta succeeded.
func RenderReadme(content, summary string, meta *generator.Metadata) string {
	var sb strings.Builder
	sb.WriteString(content)
	sb.WriteString(summarySeparator)
	sb.WriteString(summary)
	sb.WriteString("\n")

	if meta != nil && meta.Succeeded() {
		sb.WriteString("\n## Project Metadata\n\n")
		sb.WriteString(fmt.Sprintf("- **Category:** %s\n", meta.Category))
		sb.WriteString(fmt.Sprintf("- **Type:** %s\n", meta.ProjectType))
		if len(meta.Tags) > 0 {
			sb.WriteString(fmt.Sprintf("- **Tags:** %s\n", strings.Join(meta.Tags, ", ")))
		}
		if len(meta.TechStack) > 0 {
			sb.WriteString(fmt.Sprintf("- **Tech Stack:** %s\n", strings.Join(meta.TechStack, ", ")))
		}
		sb.WriteString(fmt.Sprintf("- **Primary Language:** %s\n", meta.PrimaryLanguage))
		if meta.Description != "" {
			sb.WriteString(fmt.Sprintf("- **Description:** %s\n", meta.Description))
		}
	}

	return sb.String()
}

// WriteReadme overwrites the README at path with RenderReadme's output.
func WriteReadme(path, content, summary string, meta *generator.Metadata) error {
	if err := writeFileAtomic(path, []byte(RenderReadme(content, summary, meta))); err != nil {
		return fmt.Errorf("writing README: %w", err)
	}
	return nil
}

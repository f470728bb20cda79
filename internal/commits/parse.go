// Package commits classifies commit subject lines and reads them from a
// git repository.
package commits

import (
	"regexp"
	"strings"
)

// TypeOther is the type assigned to messages without a "<type>:" prefix.
const TypeOther = "other"

// Record is a commit subject split into its conventional-commit-like type
// and the remaining text.
type Record struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Conventional reports whether the subject carried an explicit type prefix.
func (r Record) Conventional() bool {
	return r.Type != TypeOther
}

// Parse splits raw at its first colon. The text before the colon becomes
// the type and everything after it the content, both trimmed. Messages
// without a colon get type "other" and the whole trimmed message as
// content. Parse never fails; Parse("") is {other, ""}.
func Parse(raw string) Record {
	typ, content, found := strings.Cut(raw, ":")
	if !found {
		return Record{Type: TypeOther, Content: strings.TrimSpace(raw)}
	}
	return Record{
		Type:    strings.TrimSpace(typ),
		Content: strings.TrimSpace(content),
	}
}

// ParseAll parses every subject in order.
func ParseAll(subjects []string) []Record {
	records := make([]Record, 0, len(subjects))
	for _, s := range subjects {
		records = append(records, Parse(s))
	}
	return records
}

var conventionalPattern = regexp.MustCompile(`^[a-zA-Z]+:\s.+$`)

// Validate reports whether msg follows the "<type>: <message>" convention:
// a purely alphabetic type, a colon, whitespace and a non-empty message.
func Validate(msg string) bool {
	if msg == "" || !strings.Contains(msg, ":") {
		return false
	}
	return conventionalPattern.MatchString(strings.TrimSpace(msg))
}

// TypeCounts tallies records by type.
func TypeCounts(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Type]++
	}
	return counts
}

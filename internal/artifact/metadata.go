package artifact

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/readmegen/internal/generator"
)

// MaxHistory bounds generation_history. Oldest entries are evicted first.
const MaxHistory = 10

// HistoryEntry is one past generation.
type HistoryEntry struct {
	Timestamp string             `json:"timestamp"`
	Metadata  generator.Metadata `json:"metadata"`
}

// MetadataDocument is the content of project_metadata.json: the current
// metadata inline at the top level plus recent generations.
type MetadataDocument struct {
	generator.Metadata
	GenerationHistory []HistoryEntry `json:"generation_history"`
}

// MetadataStore persists metadata documents at Path.
type MetadataStore struct {
	Path string
	Now  func() time.Time
}

// NewMetadataStore returns a store for the document at path.
func NewMetadataStore(path string) *MetadataStore {
	return &MetadataStore{Path: path, Now: time.Now}
}

// Load reads the document. A missing file yields an empty document.
func (s *MetadataStore) Load() (MetadataDocument, error) {
	var doc MetadataDocument
	if err := readJSON(s.Path, &doc); err != nil {
		return MetadataDocument{}, err
	}
	return doc, nil
}

// Append records meta as the newest generation, trims the history and
// rewrites the top-level fields from the newest entry.
func (s *MetadataStore) Append(meta generator.Metadata) (MetadataDocument, error) {
	doc, err := s.Load()
	if err != nil {
		return MetadataDocument{}, fmt.Errorf("loading metadata: %w", err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	doc.GenerationHistory = append(doc.GenerationHistory, HistoryEntry{
		Timestamp: now().UTC().Format(time.RFC3339),
		Metadata:  meta,
	})
	if n := len(doc.GenerationHistory); n > MaxHistory {
		doc.GenerationHistory = append([]HistoryEntry(nil), doc.GenerationHistory[n-MaxHistory:]...)
	}
	doc.Metadata = doc.GenerationHistory[len(doc.GenerationHistory)-1].Metadata

	if err := writeJSON(s.Path, doc); err != nil {
		return MetadataDocument{}, fmt.Errorf("writing metadata: %w", err)
	}
	return doc, nil
}

package artifact

import (
	"fmt"

	"github.com/blackwell-systems/readmegen/internal/generator"
)

// Metrics is the content of ml_metrics.json.
type Metrics struct {
	TotalGenerations      int   `json:"total_generations"`
	SuccessfulGenerations int   `json:"successful_generations"`
	FailedGenerations     int   `json:"failed_generations"`
	AvgLatencyMS          int64 `json:"avg_latency_ms"`
}

// Observe folds one generation into m. The latency average is a running
// mean over successful generations only, truncated at every step.
func (m *Metrics) Observe(meta generator.Metadata) {
	m.TotalGenerations++
	if !meta.Succeeded() {
		m.FailedGenerations++
		return
	}
	m.SuccessfulGenerations++
	n := int64(m.SuccessfulGenerations)
	m.AvgLatencyMS = (m.AvgLatencyMS*(n-1) + meta.MLLatencyMS) / n
}

// MetricsStore persists Metrics at Path.
type MetricsStore struct {
	Path string
}

// NewMetricsStore returns a store for the metrics file at path.
func NewMetricsStore(path string) *MetricsStore {
	return &MetricsStore{Path: path}
}

// Load reads the metrics. A missing file yields zero counters.
func (s *MetricsStore) Load() (Metrics, error) {
	var m Metrics
	if err := readJSON(s.Path, &m); err != nil {
		return Metrics{}, err
	}
	return m, nil
}

// Record folds meta into the stored metrics and writes them back.
func (s *MetricsStore) Record(meta generator.Metadata) (Metrics, error) {
	m, err := s.Load()
	if err != nil {
		return Metrics{}, fmt.Errorf("loading metrics: %w", err)
	}
	m.Observe(meta)
	if err := writeJSON(s.Path, m); err != nil {
		return Metrics{}, fmt.Errorf("writing metrics: %w", err)
	}
	return m, nil
}

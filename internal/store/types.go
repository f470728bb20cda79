// Package store records readmegen runs in a local SQLite database.
package store

import "time"

// Strategy values for Run.Strategy.
const (
	StrategyLocal  = "local"
	StrategyPR     = "pr"
	StrategyDryRun = "dry-run"
)

// Run is one pipeline execution.
type Run struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	RepoPath       string    `json:"repo_path"`
	CommitCount    int       `json:"commit_count"`
	UsedFallback   bool      `json:"used_fallback"`
	FileCount      int       `json:"file_count"`
	ReadmeStatus   string    `json:"readme_status"`
	MetadataStatus string    `json:"metadata_status"`
	LatencyMS      int64     `json:"latency_ms"`
	Strategy       string    `json:"strategy"`
	PRURL          string    `json:"pr_url,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
}

// RunStats aggregates all recorded runs.
type RunStats struct {
	Total            int     `json:"total"`
	ReadmeFailures   int     `json:"readme_failures"`
	MetadataFailures int     `json:"metadata_failures"`
	FallbackRuns     int     `json:"fallback_runs"`
	PullRequests     int     `json:"pull_requests"`
	AvgDurationMS    float64 `json:"avg_duration_ms"`
	LastRunAt        string  `json:"last_run_at,omitempty"`
}

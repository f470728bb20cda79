package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status values for the readme_status and metadata_status columns.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// timeLayout is fixed-width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InsertRun stores r, assigning an ID when it has none, and returns the ID.
func (db *DB) InsertRun(r *Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	_, err := db.conn.Exec(
		`INSERT INTO runs
		(id, started_at, repo_path, commit_count, used_fallback, file_count,
		 readme_status, metadata_status, latency_ms, strategy, pr_url, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(timeLayout), r.RepoPath, r.CommitCount,
		r.UsedFallback, r.FileCount, r.ReadmeStatus, r.MetadataStatus, r.LatencyMS,
		r.Strategy, nullString(r.PRURL), r.DurationMS,
	)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, started_at, repo_path, commit_count, used_fallback, file_count,
		        readme_status, metadata_status, latency_ms, strategy, pr_url, duration_ms
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		var prURL sql.NullString
		if err := rows.Scan(&r.ID, &startedAt, &r.RepoPath, &r.CommitCount, &r.UsedFallback,
			&r.FileCount, &r.ReadmeStatus, &r.MetadataStatus, &r.LatencyMS, &r.Strategy,
			&prURL, &r.DurationMS); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeLayout, startedAt)
		r.PRURL = prURL.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Stats aggregates every stored run.
func (db *DB) Stats() (RunStats, error) {
	var s RunStats
	var avg sql.NullFloat64
	var last sql.NullString
	err := db.conn.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN readme_status = 'failed' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN metadata_status = 'failed' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN used_fallback THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN strategy = 'pr' THEN 1 ELSE 0 END), 0),
		        AVG(duration_ms),
		        MAX(started_at)
		 FROM runs`,
	).Scan(&s.Total, &s.ReadmeFailures, &s.MetadataFailures, &s.FallbackRuns, &s.PullRequests, &avg, &last)
	if err != nil {
		return RunStats{}, err
	}
	s.AvgDurationMS = avg.Float64
	s.LastRunAt = last.String
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

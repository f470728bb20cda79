package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/readmegen/internal/artifact"
	"github.com/blackwell-systems/readmegen/internal/commits"
	"github.com/blackwell-systems/readmegen/internal/generator"
	"github.com/blackwell-systems/readmegen/internal/scanner"
	"github.com/blackwell-systems/readmegen/internal/store"
)

// ScanResult is the scan_repository answer.
type ScanResult struct {
	Path        string     `json:"path"`
	FileCount   int        `json:"file_count"`
	Directories int        `json:"directories"`
	Extensions  []string   `json:"extensions"`
	Listing     [][]string `json:"listing"`
}

// CommitsResult is the recent_commits answer.
type CommitsResult struct {
	Path       string         `json:"path"`
	Commits    []Commit       `json:"commits"`
	TypeCounts map[string]int `json:"type_counts"`
}

// Commit is one parsed commit subject.
type Commit struct {
	Subject      string `json:"subject"`
	Type         string `json:"type"`
	Content      string `json:"content"`
	Conventional bool   `json:"conventional"`
}

// HistoryResult is the run_history answer.
type HistoryResult struct {
	Runs  []store.Run    `json:"runs"`
	Stats store.RunStats `json:"stats"`
}

// PreviewResult is the preview_readme answer. Nothing is written.
type PreviewResult struct {
	Path         string             `json:"path"`
	UsedFallback bool               `json:"used_fallback"`
	ReadmeStatus string             `json:"readme_status"`
	Readme       string             `json:"readme"`
	Metadata     generator.Metadata `json:"metadata"`
}

var (
	pathSchema    = json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Repository path (default: configured repo_path)"}},"additionalProperties":false}`)
	commitsSchema = json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Repository path (default: configured repo_path)"},"limit":{"type":"integer","description":"Number of commits to return (default 20)"}},"additionalProperties":false}`)
	limitSchema   = json.RawMessage(`{"type":"object","properties":{"limit":{"type":"integer","description":"Number of runs to return (default 10)"}},"additionalProperties":false}`)
)

var (
	errNoStore     = errors.New("run history is disabled")
	errNoCompleter = errors.New("no LLM client configured")
)

func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "scan_repository",
		Description: "File count, per-directory listing and source extensions of a repository.",
		InputSchema: pathSchema,
		Handler:     s.handleScan,
	})
	s.registerTool(toolDef{
		Name:        "recent_commits",
		Description: "Recent commit subjects split into type and content.",
		InputSchema: commitsSchema,
		Handler:     s.handleCommits,
	})
	s.registerTool(toolDef{
		Name:        "run_history",
		Description: "Recent readmegen runs and aggregate statistics.",
		InputSchema: limitSchema,
		Handler:     s.handleHistory,
	})
	s.registerTool(toolDef{
		Name:        "preview_readme",
		Description: "Generate the README and metadata for a repository without writing anything.",
		InputSchema: pathSchema,
		Handler:     s.handlePreview,
	})
}

type toolArgs struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

func decodeArgs(raw json.RawMessage) (toolArgs, error) {
	var a toolArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("invalid arguments: %w", err)
	}
	return a, nil
}

// repoPath resolves the path argument against the configured repository.
func (s *Server) repoPath(p string) (string, error) {
	if p == "" {
		p = s.cfg.RepoPath
	}
	if !scanner.ValidatePath(p) {
		return "", fmt.Errorf("invalid repository path: %s", p)
	}
	return p, nil
}

func (s *Server) handleScan(_ context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	path, err := s.repoPath(args.Path)
	if err != nil {
		return nil, err
	}
	res, err := scanner.Scan(path)
	if err != nil {
		return nil, err
	}
	return ScanResult{
		Path:        path,
		FileCount:   res.FileCount,
		Directories: len(res.Listing),
		Extensions:  scanner.ExtensionSummary(res.Listing, 0),
		Listing:     res.Listing,
	}, nil
}

func (s *Server) handleCommits(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	path, err := s.repoPath(args.Path)
	if err != nil {
		return nil, err
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 20
	}

	subjects := commits.Recent(ctx, path, limit, s.log)
	records := commits.ParseAll(subjects)
	out := CommitsResult{Path: path, Commits: make([]Commit, len(records)), TypeCounts: commits.TypeCounts(records)}
	for i, r := range records {
		out.Commits[i] = Commit{Subject: subjects[i], Type: r.Type, Content: r.Content, Conventional: commits.Validate(subjects[i])}
	}
	return out, nil
}

func (s *Server) handleHistory(_ context.Context, raw json.RawMessage) (any, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	args, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}
	runs, err := s.store.RecentRuns(limit)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.Stats()
	if err != nil {
		return nil, err
	}
	return HistoryResult{Runs: runs, Stats: stats}, nil
}

func (s *Server) handlePreview(ctx context.Context, raw json.RawMessage) (any, error) {
	if s.completer == nil {
		return nil, errNoCompleter
	}
	args, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	path, err := s.repoPath(args.Path)
	if err != nil {
		return nil, err
	}

	res, err := scanner.Scan(path)
	if err != nil {
		return nil, err
	}
	subjects, fellBack := commits.WithFallback(commits.Recent(ctx, path, s.cfg.CommitDepth, s.log))

	existing, err := artifact.ExistingReadme(filepath.Join(path, s.cfg.Files.Readme))
	if err != nil {
		s.log.Warn("reading existing README", "path", path, "error", err)
		existing = ""
	}

	content, genErr := generator.GenerateReadme(ctx, s.completer, subjects, existing)
	meta := generator.GenerateMetadata(ctx, s.completer, subjects, res.FileCount, res.Listing, time.Now)

	status := store.StatusSuccess
	if genErr != nil {
		status = store.StatusFailed
	}
	body := generator.ReadmeBody(content, genErr)
	return PreviewResult{
		Path:         path,
		UsedFallback: fellBack,
		ReadmeStatus: status,
		Readme:       artifact.RenderReadme(body, scanner.Summary(res, time.Now()), &meta),
		Metadata:     meta,
	}, nil
}

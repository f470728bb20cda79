package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blackwell-systems/readmegen/internal/artifact"
	"github.com/blackwell-systems/readmegen/internal/commits"
	"github.com/blackwell-systems/readmegen/internal/config"
	"github.com/blackwell-systems/readmegen/internal/generator"
	"github.com/blackwell-systems/readmegen/internal/github"
	"github.com/blackwell-systems/readmegen/internal/gitops"
	"github.com/blackwell-systems/readmegen/internal/llm"
	"github.com/blackwell-systems/readmegen/internal/scanner"
	"github.com/blackwell-systems/readmegen/internal/store"
)

// ErrInvalidRepoPath is returned when the repository root is not a directory.
var ErrInvalidRepoPath = errors.New("invalid repository path")

// Pipeline runs one README generation. Store and GitHub are optional.
type Pipeline struct {
	Config    *config.Config
	Completer llm.Completer
	Log       *slog.Logger
	Store     *store.DB
	GitHub    *github.Client
	Now       func() time.Time
	DryRun    bool
	Stdout    io.Writer
}

// Report summarizes a pipeline run.
type Report struct {
	RunID        string               `json:"run_id,omitempty"`
	RepoPath     string               `json:"repo_path"`
	FileCount    int                  `json:"file_count"`
	CommitCount  int                  `json:"commit_count"`
	UsedFallback bool                 `json:"used_fallback"`
	ReadmeStatus string               `json:"readme_status"`
	ReadmeError  string               `json:"readme_error,omitempty"`
	Metadata     generator.Metadata   `json:"metadata"`
	Strategy     string               `json:"strategy"`
	PullRequest  *github.PullRequest  `json:"pull_request,omitempty"`
	PRError      string               `json:"pr_error,omitempty"`
	Commit       *gitops.CommitResult `json:"commit,omitempty"`
	Metrics      *artifact.Metrics    `json:"metrics,omitempty"`
	Written      []string             `json:"written,omitempty"`
	Duration     time.Duration        `json:"duration_ns"`
	Readme       string               `json:"-"`
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run executes the pipeline. Degraded stages are reported, not returned;
// the error result is reserved for an unusable repository path and for
// failing to write the README.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	cfg := p.Config
	log := p.Log
	started := p.now()

	if !scanner.ValidatePath(cfg.RepoPath) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRepoPath, cfg.RepoPath)
	}

	report := &Report{RepoPath: cfg.RepoPath}

	scan, err := scanner.Scan(cfg.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("scanning repository: %w", err)
	}
	recent := commits.Recent(ctx, cfg.RepoPath, cfg.CommitDepth, log)

	subjects, fellBack := commits.WithFallback(recent)
	if fellBack {
		log.Warn("no commits found, using sample commits", "repo", cfg.RepoPath)
	}
	report.FileCount = scan.FileCount
	report.CommitCount = len(subjects)
	report.UsedFallback = fellBack
	log.Info("collected repository context", "files", scan.FileCount, "commits", len(subjects))

	readmePath := cfg.RepoFile(cfg.Files.Readme)
	existing, err := artifact.ExistingReadme(readmePath)
	if err != nil {
		log.Warn("reading existing README", "path", readmePath, "error", err)
		existing = ""
	}

	content, readmeErr := generator.GenerateReadme(ctx, p.Completer, subjects, existing)
	body := generator.ReadmeBody(content, readmeErr)
	report.ReadmeStatus = store.StatusSuccess
	if readmeErr != nil {
		report.ReadmeStatus = store.StatusFailed
		report.ReadmeError = readmeErr.Error()
		log.Error("README generation failed", "error", readmeErr)
	}

	meta := generator.GenerateMetadata(ctx, p.Completer, subjects, scan.FileCount, scan.Listing, p.now)
	report.Metadata = meta
	if meta.Succeeded() {
		log.Info("metadata generated", "category", meta.Category, "latency_ms", meta.MLLatencyMS)
	} else {
		log.Warn("metadata generation failed", "error", meta.MLError)
	}

	summary := scanner.Summary(scan, p.now())
	report.Readme = artifact.RenderReadme(body, summary, &meta)

	switch {
	case p.DryRun:
		report.Strategy = store.StrategyDryRun
		if p.Stdout != nil {
			fmt.Fprint(p.Stdout, report.Readme)
		}
	case p.GitHub != nil && p.openPullRequest(ctx, report):
		report.Strategy = store.StrategyPR
	default:
		report.Strategy = store.StrategyLocal
		if err := p.writeLocal(ctx, report, body, summary, meta); err != nil {
			return report, err
		}
	}

	report.Duration = p.now().Sub(started)
	p.record(report, started)
	return report, nil
}

// openPullRequest tries the PR strategy and reports whether it succeeded.
func (p *Pipeline) openPullRequest(ctx context.Context, report *Report) bool {
	pr, err := p.GitHub.CreateReadmePR(ctx, report.Readme, p.now())
	if err != nil {
		report.PRError = err.Error()
		var be *github.BranchError
		if errors.As(err, &be) {
			p.Log.Warn("pull request failed, falling back to local write", "branch", be.Branch, "error", err)
		} else {
			p.Log.Warn("pull request failed, falling back to local write", "error", err)
		}
		return false
	}
	report.PullRequest = &pr
	p.Log.Info("opened pull request", "number", pr.Number, "url", pr.URL)
	return true
}

func (p *Pipeline) writeLocal(ctx context.Context, report *Report, body, summary string, meta generator.Metadata) error {
	cfg := p.Config
	log := p.Log

	readmePath := cfg.RepoFile(cfg.Files.Readme)
	if err := artifact.WriteReadme(readmePath, body, summary, &meta); err != nil {
		return err
	}
	report.Written = append(report.Written, cfg.Files.Readme)
	log.Info("wrote README", "path", readmePath)

	metaStore := artifact.NewMetadataStore(cfg.RepoFile(cfg.Files.Metadata))
	metaStore.Now = p.now
	if _, err := metaStore.Append(meta); err != nil {
		log.Error("updating metadata file", "error", err)
	} else {
		report.Written = append(report.Written, cfg.Files.Metadata)
	}

	metrics, err := artifact.NewMetricsStore(cfg.RepoFile(cfg.Files.Metrics)).Record(meta)
	if err != nil {
		log.Error("updating metrics file", "error", err)
	} else {
		report.Metrics = &metrics
		report.Written = append(report.Written, cfg.Files.Metrics)
	}

	if !cfg.Git.AutoCommit {
		return nil
	}

	push := cfg.Git.AutoPush
	if push && cfg.CI {
		log.Info("skipping push in CI")
		push = false
	}
	repo := gitops.Open(cfg.RepoPath)
	if cfg.Git.Remote != "" {
		repo.Remote = cfg.Git.Remote
	}
	repo.Branch = cfg.Git.Branch

	res, err := gitops.AutoCommit(ctx, repo, []string{cfg.Files.Readme, cfg.Files.Metadata}, meta, push, log)
	if err != nil {
		log.Error("auto-commit failed", "error", err)
		return nil
	}
	report.Commit = &res
	return nil
}

// record stores the run. Failures are logged only.
func (p *Pipeline) record(report *Report, started time.Time) {
	if p.Store == nil {
		return
	}
	run := &store.Run{
		StartedAt:      started,
		RepoPath:       report.RepoPath,
		CommitCount:    report.CommitCount,
		UsedFallback:   report.UsedFallback,
		FileCount:      report.FileCount,
		ReadmeStatus:   report.ReadmeStatus,
		MetadataStatus: report.Metadata.MLStatus,
		LatencyMS:      report.Metadata.MLLatencyMS,
		Strategy:       report.Strategy,
		DurationMS:     report.Duration.Milliseconds(),
	}
	if report.PullRequest != nil {
		run.PRURL = report.PullRequest.URL
	}
	id, err := p.Store.InsertRun(run)
	if err != nil {
		p.Log.Warn("recording run", "error", err)
		return
	}
	report.RunID = id
}

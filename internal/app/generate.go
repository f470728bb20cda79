package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/readmegen/internal/config"
	"github.com/blackwell-systems/readmegen/internal/github"
	"github.com/blackwell-systems/readmegen/internal/llm"
	"github.com/blackwell-systems/readmegen/internal/logging"
	"github.com/blackwell-systems/readmegen/internal/output"
	"github.com/blackwell-systems/readmegen/internal/store"
)

var (
	genFlagRepo       string
	genFlagDepth      int
	genFlagPR         bool
	genFlagAutoCommit bool
	genFlagAutoPush   bool
	genFlagDryRun     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the README and project metadata",
	Long: `Generate collects recent commit subjects and the repository file tree,
asks the configured LLM for README content and project metadata, then writes
README.md, project_metadata.json and ml_metrics.json into the repository.

With --pr (or github.create_pr) and a GitHub token and repository configured,
the README is proposed as a pull request instead. If the pull request cannot
be opened the files are written locally.`,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&genFlagRepo, "repo", "", "Repository path (default: REPO_PATH, GITHUB_WORKSPACE or .)")
	f.IntVar(&genFlagDepth, "depth", 0, "Number of recent commits to read")
	f.BoolVar(&genFlagPR, "pr", false, "Open a pull request instead of writing locally")
	f.BoolVar(&genFlagAutoCommit, "auto-commit", false, "Commit the written files")
	f.BoolVar(&genFlagAutoPush, "auto-push", false, "Push after auto-commit")
	f.BoolVar(&genFlagDryRun, "dry-run", false, "Print the README to stdout and write nothing")
}

// applyGenerateFlags overrides cfg with flags set on the command line.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("repo") {
		cfg.RepoPath = genFlagRepo
	}
	if f.Changed("depth") {
		cfg.CommitDepth = genFlagDepth
	}
	if f.Changed("pr") {
		cfg.GitHub.CreatePR = genFlagPR
	}
	if f.Changed("auto-commit") {
		cfg.Git.AutoCommit = genFlagAutoCommit
	}
	if f.Changed("auto-push") {
		cfg.Git.AutoPush = genFlagAutoPush
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, cfg)

	log, closer := logging.New(cfg, os.Stderr)
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, cleanup, err := buildPipeline(ctx, cfg, log, genFlagDryRun, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if genFlagDryRun {
		return nil
	}
	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	renderReport(cmd.OutOrStdout(), report)
	return nil
}

// buildPipeline wires the LLM client, the optional GitHub client and the
// optional run history store for cfg. cleanup closes the store.
func buildPipeline(ctx context.Context, cfg *config.Config, log *slog.Logger, dryRun bool, stdout io.Writer) (*Pipeline, func(), error) {
	completer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("creating LLM client: %w", err)
	}
	log.Debug("llm client ready", "provider", cfg.LLM.Provider, "model", completer.Model())

	p := &Pipeline{
		Config:    cfg,
		Completer: completer,
		Log:       log,
		DryRun:    dryRun,
		Stdout:    stdout,
	}

	if cfg.PRConfigured() {
		p.GitHub = github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token, cfg.GitHub.Repository)
	} else if cfg.GitHub.CreatePR {
		log.Warn("pull request requested but GITHUB_TOKEN or GITHUB_REPOSITORY is not set, writing locally")
	}

	cleanup := func() {}
	if !cfg.Store.Disabled && !dryRun {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			log.Warn("opening run history, continuing without it", "path", cfg.Store.Path, "error", err)
		} else {
			p.Store = db
			cleanup = func() { _ = db.Close() }
		}
	}
	return p, cleanup, nil
}

// renderReport prints the styled run summary.
func renderReport(w io.Writer, r *Report) {
	fmt.Fprintln(w, output.Section("readmegen"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.KV("Repository", r.RepoPath))
	fmt.Fprintln(w, output.KV("Files", strconv.Itoa(r.FileCount)))

	commitsLine := strconv.Itoa(r.CommitCount)
	if r.UsedFallback {
		commitsLine += " " + output.Warn("sample commits used")
	}
	fmt.Fprintln(w, output.KV("Commits", commitsLine))

	readme := output.Status(r.ReadmeStatus)
	if r.ReadmeError != "" {
		readme += " " + output.StyleMuted.Render(r.ReadmeError)
	}
	fmt.Fprintln(w, output.KV("README", readme))

	meta := output.Status(r.Metadata.MLStatus)
	if r.Metadata.Succeeded() {
		meta += fmt.Sprintf(" %s (%s, %d ms)", r.Metadata.Category, strings.Join(r.Metadata.Tags, ", "), r.Metadata.MLLatencyMS)
	} else if r.Metadata.MLError != "" {
		meta += " " + output.StyleMuted.Render(r.Metadata.MLError)
	}
	fmt.Fprintln(w, output.KV("Metadata", meta))

	switch r.Strategy {
	case store.StrategyPR:
		fmt.Fprintln(w, output.KV("Pull request", fmt.Sprintf("#%d %s", r.PullRequest.Number, r.PullRequest.URL)))
	case store.StrategyLocal:
		if r.PRError != "" {
			fmt.Fprintln(w, output.KV("Pull request", output.Warn("failed, wrote locally")))
		}
		fmt.Fprintln(w, output.KV("Written", strings.Join(r.Written, ", ")))
		if r.Commit != nil && r.Commit.Committed {
			c := r.Commit.SHA
			if len(c) > 7 {
				c = c[:7]
			}
			if r.Commit.Pushed {
				c += " (pushed)"
			}
			fmt.Fprintln(w, output.KV("Commit", c))
		}
	}

	if r.Metrics != nil {
		fmt.Fprintln(w, output.KV("Generations", fmt.Sprintf("%d total, %d ok, %d failed, avg %d ms",
			r.Metrics.TotalGenerations, r.Metrics.SuccessfulGenerations, r.Metrics.FailedGenerations, r.Metrics.AvgLatencyMS)))
	}
	fmt.Fprintln(w, output.KV("Duration", r.Duration.Round(time.Millisecond).String()))
	fmt.Fprintln(w)
}

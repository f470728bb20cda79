package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/readmegen/internal/gitops"
	"github.com/blackwell-systems/readmegen/internal/logging"
	"github.com/blackwell-systems/readmegen/internal/watcher"
)

var (
	watchInterval time.Duration
	watchNotify   bool
	watchQuiet    bool
)

// minWatchInterval keeps polling from hammering the LLM provider.
const minWatchInterval = 10 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the README whenever new commits land",
	Long: `Watch polls the repository's HEAD and runs the generate pipeline each
time it moves to a new commit. Commits made by readmegen's own auto-commit
are ignored.

Examples:
  readmegen watch                     # check every minute (ctrl-c to stop)
  readmegen watch --interval 5m
  readmegen watch --auto-commit       # commit each regenerated README
  readmegen watch --notify            # desktop notification per update`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Minute, "Polling interval (e.g. 30s, 5m)")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Send desktop notifications")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal alerts")
	addGenerateFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval < minWatchInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minWatchInterval, watchInterval)
	}

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

	onChange := func(ctx context.Context, prev, curr watcher.Head) error {
		log.Info("new commit, regenerating", "from", prev.SHA, "to", curr.SHA, "subject", curr.Subject)
		_, err := p.Run(ctx)
		return err
	}

	out := cmd.ErrOrStderr()
	alertFn := func(a watcher.Alert) {
		if watchNotify {
			_ = watcher.Notify(ctx, a, out)
			return
		}
		if !watchQuiet {
			_ = watcher.FormatAlert(out, a)
		}
	}

	repo := gitops.Open(cfg.RepoPath)
	if cfg.Git.Remote != "" {
		repo.Remote = cfg.Git.Remote
	}

	log.Info("watching repository", "repo", cfg.RepoPath, "interval", watchInterval)
	err = watcher.New(repo, watchInterval, onChange, alertFn).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

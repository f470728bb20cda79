package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/readmegen/internal/artifact"
	"github.com/blackwell-systems/readmegen/internal/output"
	"github.com/blackwell-systems/readmegen/internal/store"
)

var historyFlagLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs and generation metrics",
	Long: `History lists recent generate runs from the local run database and
the cumulative generation counters stored in the repository's metrics file.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlagLimit, "limit", 10, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

// historyOutput is the JSON form of the history command.
type historyOutput struct {
	Runs    []store.Run      `json:"runs"`
	Stats   store.RunStats   `json:"stats"`
	Metrics artifact.Metrics `json:"metrics"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Store.Path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no run history at %s; run 'readmegen generate' first", cfg.Store.Path)
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer db.Close()

	runs, err := db.RecentRuns(historyFlagLimit)
	if err != nil {
		return fmt.Errorf("reading runs: %w", err)
	}
	stats, err := db.Stats()
	if err != nil {
		return fmt.Errorf("reading run stats: %w", err)
	}
	metrics, err := artifact.NewMetricsStore(cfg.RepoFile(cfg.Files.Metrics)).Load()
	if err != nil {
		return fmt.Errorf("reading metrics: %w", err)
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(historyOutput{Runs: runs, Stats: stats, Metrics: metrics})
	}

	fmt.Fprintln(w, output.Section("Recent runs"))
	fmt.Fprintln(w)
	tbl := output.NewTable("Started", "Strategy", "README", "Metadata", "Commits", "Latency", "Repository")
	for _, r := range runs {
		commits := strconv.Itoa(r.CommitCount)
		if r.UsedFallback {
			commits += "*"
		}
		strategy := r.Strategy
		if r.PRURL != "" {
			strategy = r.PRURL
		}
		tbl.AddRow(
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			strategy,
			output.Status(r.ReadmeStatus),
			output.Status(r.MetadataStatus),
			commits,
			fmt.Sprintf("%d ms", r.LatencyMS),
			r.RepoPath,
		)
	}
	tbl.Fprint(w)

	fmt.Fprintln(w, output.Section("Totals"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.KV("Runs", strconv.Itoa(stats.Total)))
	fmt.Fprintln(w, output.KV("README failures", strconv.Itoa(stats.ReadmeFailures)))
	fmt.Fprintln(w, output.KV("Sample commits", strconv.Itoa(stats.FallbackRuns)))
	fmt.Fprintln(w, output.KV("Pull requests", strconv.Itoa(stats.PullRequests)))
	fmt.Fprintln(w, output.KV("Avg duration", fmt.Sprintf("%.0f ms", stats.AvgDurationMS)))
	fmt.Fprintln(w, output.KV("Generations", fmt.Sprintf("%d total, %d ok, %d failed",
		metrics.TotalGenerations, metrics.SuccessfulGenerations, metrics.FailedGenerations)))
	fmt.Fprintln(w, output.KV("Avg latency", fmt.Sprintf("%d ms", metrics.AvgLatencyMS)))
	fmt.Fprintln(w)
	return nil
}

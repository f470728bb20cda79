package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/readmegen/internal/config"
	"github.com/blackwell-systems/readmegen/internal/gitops"
	"github.com/blackwell-systems/readmegen/internal/output"
	"github.com/blackwell-systems/readmegen/internal/scanner"
	"github.com/blackwell-systems/readmegen/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether readmegen is ready to run",
	Long: `Run a series of checks against the configuration and environment:
git availability, the target repository, the LLM credential, the GitHub
pull request settings, remote logging and the run history database. Prints
a pass/fail line for each check and a summary.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checks := runChecks(cmd.Context(), cfg)

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doctorOutput{Checks: checks, PassedCount: passed, TotalCount: len(checks)})
	}

	fmt.Fprintln(w, output.Section("Doctor"))
	fmt.Fprintln(w)
	for _, c := range checks {
		renderDoctorCheck(w, c)
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(w, " %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Fprintf(w, " %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

func runChecks(ctx context.Context, cfg *config.Config) []doctorCheck {
	return []doctorCheck{
		checkGitBinary(),
		checkRepository(ctx, cfg.RepoPath),
		checkLLMKey(cfg),
		checkGitHub(cfg),
		checkRemoteLogging(cfg),
		checkStore(cfg),
	}
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(w io.Writer, c doctorCheck) {
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Fprintf(w, "  %s  %-24s %s\n", output.Check(c.Passed, ""), label, detail)
}

func checkGitBinary() doctorCheck {
	path, err := exec.LookPath("git")
	if err != nil {
		return doctorCheck{Name: "git", Passed: false, Message: "git not found in PATH"}
	}
	return doctorCheck{Name: "git", Passed: true, Message: path}
}

// checkRepository verifies the repository path is a directory inside a git
// work tree.
func checkRepository(ctx context.Context, repoPath string) doctorCheck {
	if !scanner.ValidatePath(repoPath) {
		return doctorCheck{Name: "Repository", Passed: false, Message: fmt.Sprintf("not a directory: %s", repoPath)}
	}
	repo := gitops.Open(repoPath)
	_ = repo.MarkSafe(ctx)
	out, err := repo.Run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(out) != "true" {
		return doctorCheck{Name: "Repository", Passed: false, Message: fmt.Sprintf("not a git work tree: %s (sample commits will be used)", repoPath)}
	}
	subjects, err := repo.Subjects(ctx, 1)
	if err != nil || len(subjects) == 0 {
		return doctorCheck{Name: "Repository", Passed: false, Message: "no commits yet (sample commits will be used)"}
	}
	return doctorCheck{Name: "Repository", Passed: true, Message: repoPath}
}

func checkLLMKey(cfg *config.Config) doctorCheck {
	name := fmt.Sprintf("LLM key (%s)", cfg.LLM.Provider)
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("%s is not set", config.APIKeyEnv(cfg.LLM.Provider))}
		}
		return doctorCheck{Name: name, Passed: false, Message: err.Error()}
	}
	return doctorCheck{Name: name, Passed: true, Message: fmt.Sprintf("%s set (%s)", config.APIKeyEnv(cfg.LLM.Provider), mask(cfg.LLM.APIKey))}
}

func checkGitHub(cfg *config.Config) doctorCheck {
	switch {
	case !cfg.GitHub.CreatePR:
		return doctorCheck{Name: "GitHub pull requests", Passed: true, Message: "disabled, writing locally"}
	case cfg.PRConfigured():
		return doctorCheck{Name: "GitHub pull requests", Passed: true, Message: cfg.GitHub.Repository}
	default:
		return doctorCheck{Name: "GitHub pull requests", Passed: false, Message: "create_pr set but GITHUB_TOKEN or GITHUB_REPOSITORY missing"}
	}
}

func checkRemoteLogging(cfg *config.Config) doctorCheck {
	switch {
	case cfg.Logging.RemoteToken == "":
		return doctorCheck{Name: "Remote logging", Passed: true, Message: "disabled (LOGTAIL_SOURCE_TOKEN not set)"}
	case cfg.CI:
		return doctorCheck{Name: "Remote logging", Passed: true, Message: "suppressed in CI"}
	default:
		return doctorCheck{Name: "Remote logging", Passed: true, Message: cfg.Logging.RemoteEndpoint}
	}
}

// checkStore opens the run history database.
func checkStore(cfg *config.Config) doctorCheck {
	if cfg.Store.Disabled {
		return doctorCheck{Name: "Run history", Passed: true, Message: "disabled"}
	}
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return doctorCheck{Name: "Run history", Passed: true, Message: fmt.Sprintf("will be created at %s", cfg.Store.Path)}
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return doctorCheck{Name: "Run history", Passed: false, Message: err.Error()}
	}
	defer db.Close()
	stats, err := db.Stats()
	if err != nil {
		return doctorCheck{Name: "Run history", Passed: false, Message: err.Error()}
	}
	return doctorCheck{Name: "Run history", Passed: true, Message: fmt.Sprintf("%d runs recorded", stats.Total)}
}

// mask shows only the first few characters of a secret.
func mask(s string) string {
	return s[:min(8, len(s))] + "..."
}

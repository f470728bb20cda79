// Package app contains the Cobra command tree for readmegen.
package app

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/readmegen/internal/config"
	"github.com/blackwell-systems/readmegen/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "readmegen",
	Short: "Generate and maintain a README from git history",
	Long: `readmegen reads a repository's recent commit messages and file tree,
asks an LLM to draft or refresh the README, classifies the project into
structured metadata, and either writes the results into the repository or
opens a pull request with the new README.

Run 'readmegen' with no arguments to generate for the configured repository.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor || !isatty.IsTerminal(os.Stdout.Fd()) {
			output.SetNoColor(true)
		}
	},
	RunE: runGenerate,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: .readmegen.yaml or ~/.config/readmegen/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	addGenerateFlags(rootCmd)
}

// loadConfig loads configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/readmegen/internal/llm"
	"github.com/blackwell-systems/readmegen/internal/logging"
	"github.com/blackwell-systems/readmegen/internal/mcp"
	"github.com/blackwell-systems/readmegen/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing readmegen tools",
	Long: `Start a Model Context Protocol stdio server. The server exposes:

  scan_repository  File count, directory listing and source extensions
  recent_commits   Recent commit subjects with their parsed type
  run_history      Recent runs and aggregate statistics
  preview_readme   Generate README and metadata without writing anything

preview_readme needs an LLM API key; run_history needs the run history
database. Logs go to stderr.

Example client configuration:
  {"mcpServers":{"readmegen":{"command":"readmegen","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, closer := logging.New(cfg, os.Stderr)
	defer closer.Close()

	opts := []mcp.Option{mcp.WithLogger(log), mcp.WithVersion(appVersion)}

	if completer, err := llm.New(cmd.Context(), cfg.LLM); err != nil {
		log.Warn("preview_readme disabled", "error", err)
	} else {
		opts = append(opts, mcp.WithCompleter(completer))
	}

	if !cfg.Store.Disabled {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			log.Warn("run_history disabled", "path", cfg.Store.Path, "error", err)
		} else {
			defer db.Close()
			opts = append(opts, mcp.WithStore(db))
		}
	}

	return mcp.NewServer(cfg, opts...).Run(cmd.Context(), os.Stdin, cmd.OutOrStdout())
}

package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/readmegen/internal/output"
	"github.com/blackwell-systems/readmegen/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Show the file inventory readmegen sends to the model",
	Long: `Scan walks the repository the same way generate does, skipping VCS,
editor, virtualenv and cache directories and hidden files, and prints the
file count, each directory's files and the detected extensions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

// scanOutput is the JSON form of the scan command.
type scanOutput struct {
	Path       string     `json:"path"`
	FileCount  int        `json:"file_count"`
	Listing    [][]string `json:"listing"`
	Extensions []string   `json:"extensions"`
}

func runScan(cmd *cobra.Command, args []string) error {
	path, err := repoArg(args)
	if err != nil {
		return err
	}

	res, err := scanner.Scan(path)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	exts := scanner.ExtensionSummary(res.Listing, 0)

	w := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(scanOutput{Path: path, FileCount: res.FileCount, Listing: res.Listing, Extensions: exts})
	}

	fmt.Fprintln(w, output.Section("Scan"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.KV("Path", path))
	fmt.Fprintln(w, output.KV("Files", strconv.Itoa(res.FileCount)))
	fmt.Fprintln(w, output.KV("Extensions", strings.Join(exts, ", ")))
	fmt.Fprintln(w)

	tbl := output.NewTable("Dir", "Files")
	for i, files := range res.Listing {
		if len(files) == 0 {
			continue
		}
		tbl.AddRow(strconv.Itoa(i), strings.Join(files, ", "))
	}
	tbl.Fprint(w)
	return nil
}

// repoArg returns the optional path argument, or the configured repository.
func repoArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.RepoPath, nil
}

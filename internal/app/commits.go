package app

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/readmegen/internal/commits"
	"github.com/blackwell-systems/readmegen/internal/logging"
	"github.com/blackwell-systems/readmegen/internal/output"
)

var commitsFlagLimit int

var commitsCmd = &cobra.Command{
	Use:   "commits [path]",
	Short: "List recent commits with their parsed type",
	Long: `Commits reads recent commit subjects, splits each into a type and
content at the first colon, and flags subjects that do not follow the
"type: description" convention.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommits,
}

func init() {
	commitsCmd.Flags().IntVar(&commitsFlagLimit, "limit", 20, "Number of commits to show")
	rootCmd.AddCommand(commitsCmd)
}

// commitRow is one commit in JSON output.
type commitRow struct {
	Subject      string `json:"subject"`
	Type         string `json:"type"`
	Content      string `json:"content"`
	Conventional bool   `json:"conventional"`
}

func runCommits(cmd *cobra.Command, args []string) error {
	path, err := repoArg(args)
	if err != nil {
		return err
	}

	subjects := commits.Recent(cmd.Context(), path, commitsFlagLimit, logging.Discard())
	records := commits.ParseAll(subjects)

	w := cmd.OutOrStdout()
	if flagJSON {
		rows := make([]commitRow, len(records))
		for i, r := range records {
			rows[i] = commitRow{Subject: subjects[i], Type: r.Type, Content: r.Content, Conventional: commits.Validate(subjects[i])}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Fprintln(w, output.Section("Commits"))
	fmt.Fprintln(w)
	if len(records) == 0 {
		fmt.Fprintln(w, "  "+output.Warn("no commits found; generate will use sample commits"))
		return nil
	}

	tbl := output.NewTable("Type", "OK", "Content")
	for i, r := range records {
		tbl.AddRow(r.Type, output.Check(commits.Validate(subjects[i]), ""), r.Content)
	}
	tbl.Fprint(w)

	counts := commits.TypeCounts(records)
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})

	fmt.Fprintln(w)
	for _, t := range types {
		fmt.Fprintln(w, output.KV(t, strconv.Itoa(counts[t])))
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flowgen/config"
	"flowgen/internal/adapter/store"
)

var (
	forestsJSON   bool
	forestsDelete string
)

var forestsCmd = &cobra.Command{
	Use:   "forests",
	Short: "List stored forests",
	Long: `List the forests stored in .flowgen/forest.db by previous generate runs.

Examples:
  flowgen forests
  flowgen forests --json
  flowgen forests --delete github.com/acme/web`,
	Args: cobra.NoArgs,
	RunE: runForests,
}

func init() {
	rootCmd.AddCommand(forestsCmd)
	forestsCmd.Flags().BoolVar(&forestsJSON, "json", false, "output as JSON")
	forestsCmd.Flags().StringVar(&forestsDelete, "delete", "", "delete the forest stored under this key")
}

type forestSummary struct {
	Key        string   `json:"key"`
	Source     string   `json:"source"`
	Extensions []string `json:"extensions"`
	CreatedAt  string   `json:"createdAt"`
	Components int      `json:"components"`
}

func runForests(cmd *cobra.Command, args []string) error {
	dbPath := config.ForestDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no forest store found. Run 'flowgen generate' first")
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open forest store: %w", err)
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	if forestsDelete != "" {
		if err := st.DeleteForest(forestsDelete); err != nil {
			return fmt.Errorf("failed to delete forest: %w", err)
		}
		fmt.Fprintf(out, "Deleted forest %s\n", forestsDelete)
		return nil
	}

	records, err := st.ListForests()
	if err != nil {
		return fmt.Errorf("failed to list forests: %w", err)
	}

	summaries := make([]forestSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, forestSummary{
			Key:        rec.Key,
			Source:     rec.Source,
			Extensions: rec.Extensions,
			CreatedAt:  rec.CreatedAt.Format("2006-01-02 15:04:05"),
			Components: len(rec.Nodes),
		})
	}

	if forestsJSON {
		output, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No stored forests.")
		return nil
	}

	fmt.Fprintf(out, "Found %d stored forest(s):\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(out, "%s\n", color.CyanString(s.Key))
		fmt.Fprintf(out, "  Source:      %s\n", s.Source)
		fmt.Fprintf(out, "  Extensions:  %v\n", s.Extensions)
		fmt.Fprintf(out, "  Created:     %s\n", s.CreatedAt)
		fmt.Fprintf(out, "  Components:  %d\n", s.Components)
	}
	return nil
}


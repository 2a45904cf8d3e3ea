package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	recallLimit int
	recallJSON  bool
)

var recallCmd = persisting(&cobra.Command{
	Use:   "recall <query>",
	Short: "Find the seeds that resonate most with a query",
	Long: `Encode the query the same way stored content is encoded and rank every
seed by resonance. Returned seeds are reinforced.

Examples:
  seedbloom recall "apple orchard"
  seedbloom recall "apple orchard" -n 3
  seedbloom recall "apple" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRecall,
})

func init() {
	recallCmd.Flags().IntVarP(&recallLimit, "limit", "n", 5, "max results")
	recallCmd.Flags().BoolVar(&recallJSON, "json", false, "print results as JSON")
}

func runRecall(cmd *cobra.Command, args []string) error {
	hits, err := mem.RecallText(args[0], recallLimit)
	if err != nil {
		return fmt.Errorf("recall: %w", err)
	}
	if recallJSON {
		return printJSON(cmd.OutOrStdout(), hits)
	}
	printHits(cmd.OutOrStdout(), defaultTheme, hits)
	return nil
}

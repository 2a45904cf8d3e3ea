package cli

import (
	"cmp"
	"slices"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/seedbloom/internal/models"
)

var (
	listLimit    int
	listByWeight bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored seeds",
	Long: `List stored seeds in insertion order, or strongest first with --by-weight.

Examples:
  seedbloom list
  seedbloom list --by-weight -n 10`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "max results (0 for all)")
	listCmd.Flags().BoolVarP(&listByWeight, "by-weight", "w", false, "sort by weight, strongest first")
}

func runList(cmd *cobra.Command, args []string) error {
	seeds := mem.Seeds()
	if listByWeight {
		slices.SortStableFunc(seeds, func(a, b models.Seed) int {
			return cmp.Compare(b.Weight, a.Weight)
		})
	}
	if listLimit > 0 && len(seeds) > listLimit {
		seeds = seeds[:listLimit]
	}
	printSeedList(cmd.OutOrStdout(), defaultTheme, seeds)
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	bloomDepth int
	bloomJSON  bool
)

var bloomCmd = persisting(&cobra.Command{
	Use:   "bloom <id>",
	Short: "Expand a seed into its related seeds",
	Long: `Expand a seed breadth-first into the seeds that resonate with it, up to
--depth levels (at most 5). The id may be a unique prefix.

Examples:
  seedbloom bloom 3f2a9c1d
  seedbloom bloom 3f2a --depth 3
  seedbloom bloom 3f2a --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBloom,
})

func init() {
	bloomCmd.Flags().IntVarP(&bloomDepth, "depth", "d", 2, "expansion depth (1-5)")
	bloomCmd.Flags().BoolVar(&bloomJSON, "json", false, "print result as JSON")
}

func runBloom(cmd *cobra.Command, args []string) error {
	id, err := resolveID(args[0])
	if err != nil {
		return err
	}

	res, err := mem.Bloom(id, bloomDepth)
	if err != nil {
		return fmt.Errorf("bloom: %w", err)
	}
	if bloomJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	printBloom(cmd.OutOrStdout(), defaultTheme, res)
	return nil
}

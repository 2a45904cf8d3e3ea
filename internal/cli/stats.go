package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory size and runtime statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	printStats(w, defaultTheme, mem.Seeds(), cfg.Memory.Capacity, mem.Stats())
	fmt.Fprintf(w, "\nSnapshot: %s\n", cfg.SnapshotPath)
	return nil
}

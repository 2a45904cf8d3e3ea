package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tickRate float64

var tickCmd = persisting(&cobra.Command{
	Use:   "tick",
	Short: "Decay every seed's weight",
	Long: `Multiply every seed's weight by (1 - rate). Without --rate the
configured decay rate is used.

Examples:
  seedbloom tick
  seedbloom tick --rate 0.25`,
	Args: cobra.NoArgs,
	RunE: runTick,
})

func init() {
	tickCmd.Flags().Float64VarP(&tickRate, "rate", "r", 0, "decay rate in [0,1] (default from config)")
}

func runTick(cmd *cobra.Command, args []string) error {
	rate := cfg.Memory.DecayRate
	if cmd.Flags().Changed("rate") {
		rate = tickRate
	}
	if err := mem.TickWithRate(rate); err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Decayed %d seeds by %.3f\n", mem.Len(), rate)
	return nil
}

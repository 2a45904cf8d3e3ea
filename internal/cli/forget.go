package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = persisting(&cobra.Command{
	Use:   "forget <id>",
	Short: "Remove a seed",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
})

func runForget(cmd *cobra.Command, args []string) error {
	id, err := resolveID(args[0])
	if err != nil {
		return err
	}
	if err := mem.Forget(id); err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Forgot seed %s\n", id)
	return nil
}

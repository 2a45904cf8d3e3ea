package cli

import (
	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one seed without reinforcing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print seed as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := resolveID(args[0])
	if err != nil {
		return err
	}
	seed, err := mem.Get(id)
	if err != nil {
		return err
	}
	if showJSON {
		return printJSON(cmd.OutOrStdout(), seed)
	}
	hint, err := mem.Hint(id)
	if err != nil {
		return err
	}
	printSeed(cmd.OutOrStdout(), defaultTheme, seed, hint)
	return nil
}

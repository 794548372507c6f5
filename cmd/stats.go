package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/taptap-cli/internal/observability"
	"github.com/xkilldash9x/taptap-cli/internal/store"
)

// newStatsCmd creates the `stats` command, which prints the persisted
// lifetime tap total without opening a browser.
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Prints the lifetime tap total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tapStore, err := store.Open(cfg.State.File, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("failed to open tap store: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lifetime taps: %d\n", tapStore.Total())
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"skribbl/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// Skip config loading so version works with a broken config.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

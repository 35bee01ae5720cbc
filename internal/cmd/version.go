package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/warrig/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the warrig version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

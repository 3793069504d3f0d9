package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X ...cmd.version=v1.2.3".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the porterbot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("porterbot", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

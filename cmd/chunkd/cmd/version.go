package cmd

import (
	"github.com/spf13/cobra"
)

// set at link time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of chunkd",
	Run: func(cmd *cobra.Command, args []string) {
		infoLogger.Printf("chunkd %s (commit %s, built %s)", Version, GitCommit, BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"fmt"

	"github.com/taskgate/taskgate/internal/config"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version: %s\n", config.Version)
		fmt.Printf("Commit: %s\n", config.CommitHash)
		fmt.Printf("Build timestamp: %s\n", config.BuildTimestamp)
	},
}

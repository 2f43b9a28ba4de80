package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, overridable at link time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information for cvforge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cvforge version %s\n", Version)
		fmt.Printf("Git commit: %s\n", GitCommit)
		fmt.Printf("Build date: %s\n", BuildDate)
	},
}

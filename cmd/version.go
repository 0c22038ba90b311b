package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, injected at build time via ldflags.
var (
	AppVersion = "development"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "save %s (%s)\n", AppVersion, GitCommit)
		if os.Getenv("GEMINI_API_KEY") == "" {
			fmt.Fprintln(out, "GEMINI_API_KEY: not set")
		} else {
			fmt.Fprintln(out, "GEMINI_API_KEY: configured")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

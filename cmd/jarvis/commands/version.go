package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/flynn-ai/jarvis/internal/server"
)

// Version is set at build time with -ldflags "-X .../commands.Version=...".
var Version = server.Version

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "jarvis %s\n", Version)
		if verbose {
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
			fmt.Fprintf(out, "  config: %s\n", configPath)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

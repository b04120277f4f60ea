package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the tool version, overridden at link time.
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pixbuf %s\n", Version)
		fmt.Fprintf(out, "Go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

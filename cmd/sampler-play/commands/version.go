package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/vsariola/sampler/version"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version.String(rootCmd.Name()))
		if versionVerbose {
			fmt.Fprintf(out, "  go:   %s\n", runtime.Version())
			if version.Hash != "" {
				fmt.Fprintf(out, "  hash: %s\n", version.Hash)
			}
		}
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "also print the Go version and the VCS revision")
	rootCmd.AddCommand(versionCmd)
}

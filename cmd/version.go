package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/cloudposse/rustdn/cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the rustdn version",
	Example: "rustdn version",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rustdn %s on %s/%s\n", Version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}

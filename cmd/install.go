package cmd

import (
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [+toolchain]",
	Short: "Build the selected toolchain if it is missing or stale",
	Long: `Resolve the toolchain selected by the argument, the nearest rust-toolchain.toml,
or the default, building it with nix-build when the cached one cannot be used.`,
	Example: `  rustdn install
  rustdn install +stable-1.78`,
	Args: overrideArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, sel, _, err := resolve(cmd.Context(), args)
		if err != nil {
			return err
		}
		cmd.Printf("%s Installed %s at %s\n", checkMark.Render(), sel.Override, path)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(installCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/pkg/filesystem"
	"github.com/cloudposse/rustdn/toolchain"
)

var whichCmd = &cobra.Command{
	Use:   "which [+toolchain] <tool>",
	Short: "Print the path of a tool in the selected toolchain",
	Long:  `Resolve the selected toolchain, building it if needed, and print the path of the tool in it.`,
	Example: `  rustdn which cargo
  rustdn which +nightly rustfmt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _, rest, err := resolve(cmd.Context(), args)
		if err != nil {
			return err
		}
		if len(rest) != 1 {
			return errUtils.Build(errUtils.ErrNoToolName).
				WithHint("Usage: rustdn which [+toolchain] <tool>").
				Err()
		}

		binary := toolchain.BinaryPath(path, rest[0])
		if !filesystem.Exists(binary) {
			return errUtils.Build(errUtils.ErrToolNotFound).
				WithExplanationf("`%s` does not exist", binary).
				WithContext("tool", rest[0]).
				Err()
		}

		fmt.Fprintln(cmd.OutOrStdout(), binary)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(whichCmd)
}

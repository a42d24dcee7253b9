package cmd

import (
	"github.com/spf13/cobra"

	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/toolchain"
)

var runCmd = &cobra.Command{
	Use:   "run [+toolchain] <tool> [args...]",
	Short: "Run a tool from the selected toolchain",
	Long: `Resolve the selected toolchain, building it if needed, and run the tool from it.
rustdn exits with the tool's exit status.`,
	Example: `  rustdn run cargo build --release
  rustdn run +nightly cargo miri test`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _, rest, err := resolve(cmd.Context(), args)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			return errUtils.Build(errUtils.ErrNoToolName).
				WithHint("Usage: rustdn run [+toolchain] <tool> [args...]").
				Err()
		}

		code, err := toolchain.RunTool(path, rest[0], rest[1:])
		if err != nil {
			return err
		}
		return toolExit(code)
	},
}

// toolExit turns a tool's exit code into the command result.
func toolExit(code int) error {
	if code == 0 {
		return nil
	}
	return errUtils.WithExitCode(errUtils.ErrToolExited, code)
}

func init() {
	// Everything after the tool name belongs to the tool.
	runCmd.Flags().SetInterspersed(false)
	RootCmd.AddCommand(runCmd)
}

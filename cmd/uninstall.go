package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/pkg/filesystem"
	"github.com/cloudposse/rustdn/toolchain"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <+toolchain | default | path/to/rust-toolchain.toml>",
	Short: "Remove a toolchain from the cache",
	Long: `Remove the cache entry of a toolchain. The entry is removed under its exclusive lock,
so toolchains in use by running builds are never pulled from under them.`,
	Example: `  rustdn uninstall +stable-1.78
  rustdn uninstall default
  rustdn uninstall ./rust-toolchain.toml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := parseUninstallTarget(args[0])
		if err != nil {
			return err
		}

		removed, err := newResolver(cfg).Uninstall(o)
		if err != nil {
			return err
		}
		if !removed {
			return errUtils.Build(errUtils.ErrToolchainNotFound).
				WithContext("toolchain", o.String()).
				WithHint("Run `rustdn list` to see installed toolchains").
				Err()
		}

		cmd.Printf("%s Removed %s\n", checkMark.Render(), o)
		return nil
	},
}

// parseUninstallTarget accepts an override argument, "default", or a pin
// file path.
func parseUninstallTarget(arg string) (toolchain.Override, error) {
	if strings.HasPrefix(arg, "+") {
		o, _, err := toolchain.ParseOverrideArg(arg)
		return o, err
	}
	if arg == "default" {
		return toolchain.DefaultOverride(), nil
	}

	path, err := filepath.Abs(arg)
	if err != nil {
		return toolchain.Override{}, errUtils.Internal(err)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, toolchain.PinFileName)
	}
	if !filesystem.Exists(path) {
		return toolchain.Override{}, errUtils.Build(errUtils.ErrInvalidOverride).
			WithExplanationf("`%s` is neither +channel[-version], default, nor an existing pin file", arg).
			Err()
	}
	return toolchain.FileOverride(path), nil
}

func init() {
	RootCmd.AddCommand(uninstallCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudposse/rustdn/toolchain"
)

var showCmd = &cobra.Command{
	Use:   "show [+toolchain]",
	Short: "Show which toolchain would be used here",
	Long: `Show the toolchain selected for the current directory, where the choice came from,
and its cache entry. Nothing is built.`,
	Example: `  rustdn show
  rustdn show +nightly-2024-05-01`,
	Args: overrideArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, _, err := selectOverride(args)
		if err != nil {
			return err
		}

		entry := toolchain.NewEntry(cfg.CacheRoot, sel.Override)
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "toolchain: %s\n", sel.Override)
		fmt.Fprintf(out, "source:    %s\n", sel.Source)
		fmt.Fprintf(out, "key:       %q\n", sel.Override.Key())
		fmt.Fprintf(out, "entry:     %s\n", entry.Dir)

		if sel.Override.Kind == toolchain.KindFile {
			if pin, err := toolchain.ReadPinFile(sel.Override.Path); err == nil && pin.Toolchain.Channel != "" {
				fmt.Fprintf(out, "channel:   %s\n", pin.Toolchain.Channel)
			}
		}

		status := xMark.Render() + " not built"
		if entry.HasArtifact() {
			status = checkMark.Render() + " built"
			if sel.Override.Floating() {
				status += dimStyle.Render(" (rebuilt on every use)")
			}
		}
		fmt.Fprintf(out, "status:    %s\n", status)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)
}

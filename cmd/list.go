package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	log "github.com/cloudposse/rustdn/pkg/logger"
	"github.com/cloudposse/rustdn/toolchain"
)

const (
	builtIndicator   = "✓"
	pendingIndicator = "✗"
	dateLayout       = "2006-01-02 15:04"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List toolchains in the cache",
	Long: `List every toolchain entry under the cache root. Entries whose artifact is missing
are still being built, failed to build, or were garbage collected by Nix.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		installed, err := toolchain.ListInstalled(cfg.CacheRoot)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(installed) == 0 {
			fmt.Fprintf(out, "No toolchains installed in %s\n", cfg.CacheRoot)
			return nil
		}

		fmt.Fprintln(out, renderInstalled(installed))
		return nil
	},
}

func installedRow(item toolchain.Installed, _ int) table.Row {
	status := pendingIndicator
	built := "-"
	if item.Built {
		status = builtIndicator
		built = item.BuiltAt.Local().Format(dateLayout)
	}
	return table.Row{status, item.Override.Kind.String(), item.Override.String(), built}
}

// columnWidth is the widest cell of column i, header included.
func columnWidth(title string, rows []table.Row, i int) int {
	return lo.Max(append(
		lo.Map(rows, func(r table.Row, _ int) int { return lipgloss.Width(r[i]) }),
		lipgloss.Width(title),
	))
}

func renderInstalled(installed []toolchain.Installed) string {
	rows := lo.Map(installed, installedRow)

	titles := []string{"  ", "KIND", "TOOLCHAIN", "BUILT"}
	columns := lo.Map(titles, func(title string, i int) table.Column {
		return table.Column{Title: title, Width: columnWidth(title, rows, i)}
	})

	log.Debug("Rendering toolchain table", "rows", len(rows))

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Align(lipgloss.Left).PaddingLeft(0).PaddingRight(1)
	styles.Cell = styles.Cell.PaddingLeft(0).PaddingRight(1)
	styles.Selected = styles.Cell
	t.SetStyles(styles)

	// Indicators are styled after rendering so their escape codes don't
	// throw off the column widths.
	lines := strings.Split(t.View(), "\n")
	for i := 1; i < len(lines); i++ {
		switch {
		case strings.HasPrefix(lines[i], builtIndicator):
			lines[i] = checkMark.Render() + strings.TrimPrefix(lines[i], builtIndicator)
		case strings.HasPrefix(lines[i], pendingIndicator):
			lines[i] = dimStyle.Render(lines[i])
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	RootCmd.AddCommand(listCmd)
}

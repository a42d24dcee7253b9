package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/pkg/config"
	log "github.com/cloudposse/rustdn/pkg/logger"
	"github.com/cloudposse/rustdn/toolchain"
)

// cfg is loaded by the root command before any subcommand runs.
var cfg *config.Config

// RootCmd is the rustdn command line, used when the binary runs as rustdn.
// Under any other name the binary proxies that tool, see ExecuteProxy.
var RootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Nix-backed Rust toolchain manager",
	Long: `rustdn installs Rust toolchains with Nix and runs cargo, rustc and friends from them.

Link rustdn as cargo, rustc, rustfmt, ... and each invocation runs the tool from the toolchain
selected by a +channel[-version] first argument, the nearest rust-toolchain.toml, or stable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.String("cache-root", "", "Directory holding built toolchains (env RUSTDN_CACHE_ROOT, default ~/.rustdn/toolchains)")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error or off (env RUSTDN_LOG)")
	pf.String("nix-build", "", "nix-build executable used to build toolchains (env RUSTDN_NIX_BUILD)")
	pf.String("overlay-url", "", "rust-overlay tarball URL (env RUSTDN_OVERLAY_URL)")
	pf.Bool("progress", true, "Show a spinner while building on a terminal (env RUSTDN_PROGRESS)")
	pf.String("config", "", "Config file (env RUSTDN_CONFIG, default $XDG_CONFIG_HOME/rustdn/config.yaml)")
}

// Execute runs the rustdn command line.
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig resolves the configuration and applies its log level. flags may
// be nil when there is no command line to bind, as in proxy mode.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	v, err := config.New()
	if err != nil {
		return nil, errUtils.Internal(err)
	}
	if flags != nil {
		if err := config.BindFlags(v, flags); err != nil {
			return nil, errUtils.Internal(err)
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return nil, errUtils.Internal(err)
	}
	if err := log.Configure(loaded.LogLevel); err != nil {
		return nil, errUtils.Internal(err)
	}

	log.Trace("Configuration loaded", "cache_root", loaded.CacheRoot, "nix_build", loaded.NixBuild)
	return loaded, nil
}

func newResolver(c *config.Config) *toolchain.Resolver {
	builder := toolchain.NewNixBuilder(
		toolchain.WithNixBuild(c.NixBuild),
		toolchain.WithOverlayURL(c.OverlayURL),
		toolchain.WithProgress(c.Progress),
	)
	return toolchain.NewResolver(c.CacheRoot, builder)
}

// overrideArg accepts at most one argument, in +channel[-version] form.
func overrideArg(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		return err
	}
	if len(args) == 1 && !strings.HasPrefix(args[0], "+") {
		return errUtils.Build(errUtils.ErrInvalidOverride).
			WithExplanationf("`%s` is not a +channel[-version] toolchain", args[0]).
			WithHintf("Did you mean `rustdn %s +%s`?", cmd.Name(), args[0]).
			WithContext("argument", args[0]).
			Err()
	}
	return nil
}

// selectOverride picks the override for args relative to the working
// directory and returns the arguments left for the tool.
func selectOverride(args []string) (toolchain.Selection, []string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return toolchain.Selection{}, nil, errUtils.Internal(err)
	}

	sel, err := toolchain.Select(args, cwd)
	if err != nil {
		return toolchain.Selection{}, nil, err
	}
	if sel.ConsumedArg {
		args = args[1:]
	}

	log.Debug("Selected toolchain", "override", sel.Override.String(), "source", string(sel.Source))
	return sel, args, nil
}

// resolve selects and resolves the toolchain for args.
func resolve(ctx context.Context, args []string) (string, toolchain.Selection, []string, error) {
	sel, rest, err := selectOverride(args)
	if err != nil {
		return "", sel, nil, err
	}

	path, err := newResolver(cfg).Resolve(ctx, sel.Override)
	if err != nil {
		return "", sel, nil, err
	}
	return path, sel, rest, nil
}

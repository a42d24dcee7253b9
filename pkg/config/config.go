// Package config loads rustdn settings from flags, RUSTDN_* environment
// variables and an optional YAML file under the XDG config directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errUtils "github.com/cloudposse/rustdn/errors"
	log "github.com/cloudposse/rustdn/pkg/logger"
	"github.com/cloudposse/rustdn/toolchain"
)

const (
	AppName = "rustdn"

	DefaultLogLevel = "info"

	configFileName = "config.yaml"
)

// Setting keys. Flags with the same name, dashes for underscores, are bound
// to them by BindFlags.
const (
	KeyCacheRoot  = "cache_root"
	KeyLogLevel   = "log_level"
	KeyNixBuild   = "nix_build"
	KeyOverlayURL = "overlay_url"
	KeyProgress   = "progress"
	KeyConfigFile = "config"

	keyConfigHome = "XDG_CONFIG_HOME"
)

// envBindings maps each setting to the environment variables that set it,
// in order of precedence.
var envBindings = map[string][]string{
	KeyCacheRoot:  {"RUSTDN_CACHE_ROOT"},
	KeyLogLevel:   {"RUSTDN_LOG", "RUSTDN_LOG_LEVEL"},
	KeyNixBuild:   {"RUSTDN_NIX_BUILD"},
	KeyOverlayURL: {"RUSTDN_OVERLAY_URL"},
	KeyProgress:   {"RUSTDN_PROGRESS"},
	KeyConfigFile: {"RUSTDN_CONFIG"},
	keyConfigHome: {"RUSTDN_XDG_CONFIG_HOME", "XDG_CONFIG_HOME"},
}

// Config is the resolved rustdn configuration.
type Config struct {
	// CacheRoot is the directory holding one entry per cache key.
	CacheRoot string `mapstructure:"cache_root" yaml:"cache_root"`
	// LogLevel is one of trace, debug, info, warn, error or off.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// NixBuild is the nix-build executable used to realize toolchains.
	NixBuild string `mapstructure:"nix_build" yaml:"nix_build"`
	// OverlayURL is the rust-overlay tarball imported into nixpkgs.
	OverlayURL string `mapstructure:"overlay_url" yaml:"overlay_url"`
	// Progress enables the build spinner when stderr is a terminal.
	Progress bool `mapstructure:"progress" yaml:"progress"`
}

// New returns a viper instance with rustdn defaults and environment bindings.
func New() (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyCacheRoot, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyNixBuild, toolchain.DefaultNixBuild)
	v.SetDefault(KeyOverlayURL, toolchain.DefaultOverlayURL)
	v.SetDefault(KeyProgress, true)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("%w: binding %s: %w", errUtils.ErrConfigLoad, key, err)
		}
	}

	return v, nil
}

// BindFlags binds the flags of fs that correspond to a setting, so an
// explicitly set flag wins over the environment and the config file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range []string{KeyCacheRoot, KeyLogLevel, KeyNixBuild, KeyOverlayURL, KeyProgress, KeyConfigFile} {
		flag := fs.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("%w: binding flag --%s: %w", errUtils.ErrConfigLoad, flag.Name, err)
		}
	}
	return nil
}

// Load reads the config file, if any, and resolves the configuration.
func Load(v *viper.Viper) (*Config, error) {
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errUtils.ErrConfigLoad, err)
	}

	root, err := resolveCacheRoot(cfg.CacheRoot)
	if err != nil {
		return nil, err
	}
	cfg.CacheRoot = root

	return &cfg, nil
}

// FilePath returns the config file rustdn reads: RUSTDN_CONFIG or --config
// when set, $XDG_CONFIG_HOME/rustdn/config.yaml otherwise.
func FilePath(v *viper.Viper) string {
	if explicit := v.GetString(KeyConfigFile); explicit != "" {
		return explicit
	}

	configHome := v.GetString(keyConfigHome)
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	return filepath.Join(configHome, AppName, configFileName)
}

// DefaultCacheRoot returns ~/.rustdn/toolchains.
func DefaultCacheRoot() (string, error) {
	if xdg.Home == "" {
		return "", errUtils.ErrHomeDir
	}
	return filepath.Join(xdg.Home, "."+AppName, "toolchains"), nil
}

func readConfigFile(v *viper.Viper) error {
	path := FilePath(v)
	explicit := v.GetString(KeyConfigFile) != ""

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			log.Trace("No config file", "path", path)
			return nil
		}
		return fmt.Errorf("%w: %s: %w", errUtils.ErrConfigLoad, path, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %s: %w", errUtils.ErrConfigLoad, path, err)
	}

	log.Debug("Loaded config file", "path", path)
	return nil
}

func resolveCacheRoot(root string) (string, error) {
	if root == "" {
		return DefaultCacheRoot()
	}

	if root == "~" || strings.HasPrefix(root, "~/") {
		if xdg.Home == "" {
			return "", errUtils.ErrHomeDir
		}
		root = filepath.Join(xdg.Home, strings.TrimPrefix(root, "~"))
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", errUtils.ErrConfigLoad, root, err)
	}
	return abs, nil
}

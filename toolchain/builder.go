package toolchain

//go:generate go run go.uber.org/mock/mockgen@latest -source=$GOFILE -destination=mock_$GOFILE -package=$GOPACKAGE

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	errUtils "github.com/cloudposse/rustdn/errors"
	log "github.com/cloudposse/rustdn/pkg/logger"
)

// Builder realizes the toolchain for an override as <dir>/toolchain.
//
// On failure the returned error carries the exit status the process should
// end with; the resolver purges dir before returning it.
type Builder interface {
	Build(ctx context.Context, o Override, dir string) error
}

const (
	// DefaultNixBuild is the nix-build executable looked up on PATH.
	DefaultNixBuild = "nix-build"
	// DefaultOverlayURL is the rust-overlay tarball providing rust-bin.
	DefaultOverlayURL = "https://github.com/oxalica/rust-overlay/archive/master.tar.gz"

	latestVersion = "latest"
)

// NixBuilder builds toolchains with nix-build from rust-overlay.
type NixBuilder struct {
	command    string
	overlayURL string
	progress   bool
}

// NixOption configures a NixBuilder.
type NixOption func(*NixBuilder)

// WithNixBuild sets the nix-build executable. Empty keeps the default.
func WithNixBuild(command string) NixOption {
	return func(b *NixBuilder) {
		if command != "" {
			b.command = command
		}
	}
}

// WithOverlayURL sets the rust-overlay tarball URL. Empty keeps the default.
func WithOverlayURL(url string) NixOption {
	return func(b *NixBuilder) {
		if url != "" {
			b.overlayURL = url
		}
	}
}

// WithProgress enables the terminal spinner while building.
func WithProgress(enabled bool) NixOption {
	return func(b *NixBuilder) {
		b.progress = enabled
	}
}

// NewNixBuilder returns a NixBuilder using nix-build from PATH.
func NewNixBuilder(opts ...NixOption) *NixBuilder {
	b := &NixBuilder{
		command:    DefaultNixBuild,
		overlayURL: DefaultOverlayURL,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Expr returns the Nix expression evaluating to the toolchain for o.
func (b *NixBuilder) Expr(o Override) string {
	var selector string
	switch o.Kind {
	case KindFile:
		selector = "fromRustupToolchainFile " + nixString(o.Path)
	case KindVersion:
		version := latestVersion
		if o.HasVersion {
			version = o.Version
		}
		selector = fmt.Sprintf("%s.%s.default", o.Channel, nixString(version))
	default:
		selector = "stable.latest.default"
	}

	return fmt.Sprintf(
		"{}: (import <nixpkgs> {overlays = [(import (builtins.fetchTarball %s))];}).rust-bin.%s",
		nixString(b.overlayURL), selector,
	)
}

// Build runs nix-build with an out-link at <dir>/toolchain. The builder's
// stderr is captured and attached to the error on failure.
func (b *NixBuilder) Build(ctx context.Context, o Override, dir string) error {
	outLink := filepath.Join(dir, ArtifactName)
	cmd := exec.CommandContext(ctx, b.command, "--out-link", outLink, "--expr", b.Expr(o))

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	log.Debug("Running builder", "command", cmd.String())

	stop := startProgress(fmt.Sprintf("Building Rust toolchain %s", o), b.progress)
	err := cmd.Run()
	stop()

	if err == nil {
		log.Debug("Builder finished", "override", o.String(), "out-link", outLink)
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code <= 0 {
			// Killed by a signal.
			code = 1
		}
		return errUtils.Build(errUtils.ErrBuildFailed).
			WithExplanationf("`%s` failed:\n%s", b.command, strings.TrimRight(stderr.String(), "\n")).
			WithContext("override", o.String()).
			WithContext("exit_code", code).
			WithExitCode(code).
			Err()
	}

	return errUtils.Build(errUtils.ErrBuildStart).
		WithCause(err).
		WithHintf("Make sure Nix is installed and `%s` is on your PATH, or set RUSTDN_NIX_BUILD", b.command).
		WithContext("override", o.String()).
		WithExitCode(errUtils.ExitCodeInternal).
		Err()
}

// nixString quotes s as a Nix string literal.
func nixString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "${", `\${`)
	return `"` + r.Replace(s) + `"`
}

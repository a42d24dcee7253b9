//go:build unix

package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/cloudposse/rustdn/errors"
)

// fakeNixBuild writes a shell script standing in for nix-build. It records
// its arguments one per line in <dir>/args and then runs body.
func fakeNixBuild(t *testing.T, body string) (command, argsFile string) {
	t.Helper()

	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	command = filepath.Join(dir, "nix-build")

	script := "#!/bin/sh\nfor a in \"$@\"; do printf '%s\\n' \"$a\" >> '" + argsFile + "'; done\n" + body + "\n"
	require.NoError(t, os.WriteFile(command, []byte(script), 0o755))
	return command, argsFile
}

func TestNixBuilder_Build(t *testing.T) {
	// The out-link is the second argument.
	command, argsFile := fakeNixBuild(t, `mkdir -p "$2/bin" && echo /nix/store/fake-rust`)
	dir := t.TempDir()
	o := VersionOverride(Stable, "1.78")

	err := NewNixBuilder(WithNixBuild(command)).Build(context.Background(), o, dir)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(dir, ArtifactName, "bin"))

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--out-link", filepath.Join(dir, ArtifactName),
		"--expr", testOverlayPrefix + `stable."1.78".default`,
	}, strings.Split(strings.TrimSuffix(string(args), "\n"), "\n"))
}

func TestNixBuilder_BuildFailure(t *testing.T) {
	command, _ := fakeNixBuild(t, `echo "error: attribute '1.999' missing" >&2; exit 3`)

	err := NewNixBuilder(WithNixBuild(command)).Build(context.Background(), VersionOverride(Stable, "1.999"), t.TempDir())
	require.Error(t, err)

	assert.True(t, errors.Is(err, errUtils.ErrBuildFailed))
	assert.Equal(t, 3, errUtils.GetExitCode(err))
	assert.Contains(t, strings.Join(errors.GetAllDetails(err), "\n"), "error: attribute '1.999' missing")
}

func TestNixBuilder_BuildNotFound(t *testing.T) {
	command := filepath.Join(t.TempDir(), "missing-nix-build")

	err := NewNixBuilder(WithNixBuild(command)).Build(context.Background(), DefaultOverride(), t.TempDir())
	require.Error(t, err)

	assert.True(t, errors.Is(err, errUtils.ErrBuildStart))
	assert.Equal(t, errUtils.ExitCodeInternal, errUtils.GetExitCode(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestNixBuilder_BuildCanceled(t *testing.T) {
	command, _ := fakeNixBuild(t, `sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewNixBuilder(WithNixBuild(command)).Build(ctx, DefaultOverride(), t.TempDir())
	assert.Error(t, err)
}

//go:build unix

package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/cloudposse/rustdn/errors"
)

// buildsArtifact makes a mocked Build produce <dir>/toolchain/bin.
func buildsArtifact(_ context.Context, _ Override, dir string) error {
	return os.MkdirAll(filepath.Join(dir, ArtifactName, "bin"), 0o755)
}

func newTestResolver(t *testing.T) (*Resolver, *MockBuilder) {
	t.Helper()

	ctrl := gomock.NewController(t)
	builder := NewMockBuilder(ctrl)
	r := NewResolver(t.TempDir(), builder, WithBackoff(0))
	return r, builder
}

func TestResolve_ExplicitVersionBuildsOnce(t *testing.T) {
	r, builder := newTestResolver(t)
	o := VersionOverride(Stable, "1.78")
	entry := r.Entry(o)

	builder.EXPECT().Build(gomock.Any(), o, entry.Dir).DoAndReturn(buildsArtifact).Times(1)

	for i := 0; i < 3; i++ {
		path, err := r.Resolve(context.Background(), o)
		require.NoError(t, err)
		assert.Equal(t, entry.ArtifactPath(), path)
	}
}

func TestResolve_FloatingAlwaysBuilds(t *testing.T) {
	for _, o := range []Override{DefaultOverride(), ChannelOverride(Nightly)} {
		t.Run(o.String(), func(t *testing.T) {
			r, builder := newTestResolver(t)
			entry := r.Entry(o)

			builder.EXPECT().Build(gomock.Any(), o, entry.Dir).DoAndReturn(buildsArtifact).Times(2)

			for i := 0; i < 2; i++ {
				path, err := r.Resolve(context.Background(), o)
				require.NoError(t, err)
				assert.Equal(t, entry.ArtifactPath(), path)
			}
		})
	}
}

func TestResolve_PinFileDrift(t *testing.T) {
	r, builder := newTestResolver(t)

	pin := filepath.Join(t.TempDir(), PinFileName)
	require.NoError(t, os.WriteFile(pin, []byte("[toolchain]\nchannel = \"1.78\"\n"), 0o644))

	o := FileOverride(pin)
	entry := r.Entry(o)

	builder.EXPECT().Build(gomock.Any(), o, entry.Dir).DoAndReturn(buildsArtifact).Times(2)

	// Built, then reused while the pin file is unchanged.
	for i := 0; i < 2; i++ {
		_, err := r.Resolve(context.Background(), o)
		require.NoError(t, err)
	}

	drifted := []byte("[toolchain]\nchannel = \"1.79\"\n")
	require.NoError(t, os.WriteFile(pin, drifted, 0o644))

	_, err := r.Resolve(context.Background(), o)
	require.NoError(t, err)

	snapshot, err := os.ReadFile(entry.SnapshotPath())
	require.NoError(t, err)
	assert.Equal(t, drifted, snapshot)
}

func TestResolve_BuildFailurePurges(t *testing.T) {
	r, builder := newTestResolver(t)
	o := VersionOverride(Beta, "1.80.0-beta.3")
	entry := r.Entry(o)

	failure := errUtils.WithExitCode(errors.New("nix-build: network unreachable"), 3)

	gomock.InOrder(
		builder.EXPECT().Build(gomock.Any(), o, entry.Dir).DoAndReturn(
			func(ctx context.Context, o Override, dir string) error {
				// Leave partial output behind.
				require.NoError(t, buildsArtifact(ctx, o, dir))
				return failure
			}),
		builder.EXPECT().Build(gomock.Any(), o, entry.Dir).DoAndReturn(buildsArtifact),
	)

	_, err := r.Resolve(context.Background(), o)
	require.Error(t, err)
	assert.Equal(t, 3, errUtils.GetExitCode(err))
	assert.NoDirExists(t, entry.Dir, "a failed build must not be cached")

	path, err := r.Resolve(context.Background(), o)
	require.NoError(t, err)
	assert.DirExists(t, path)
}

func TestResolve_BuilderWithoutArtifact(t *testing.T) {
	r, builder := newTestResolver(t)
	o := VersionOverride(Stable, "1.78")
	entry := r.Entry(o)

	builder.EXPECT().Build(gomock.Any(), o, entry.Dir).Return(nil)

	_, err := r.Resolve(context.Background(), o)
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, errUtils.ErrBuildFailed))
	assert.Equal(t, errUtils.ExitCodeInternal, errUtils.GetExitCode(err))
	assert.NoDirExists(t, entry.Dir)
}

func TestResolve_PassesContextToBuilder(t *testing.T) {
	r, builder := newTestResolver(t)
	o := VersionOverride(Stable, "1.78")

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "invocation")

	builder.EXPECT().Build(gomock.Any(), o, gomock.Any()).DoAndReturn(
		func(got context.Context, o Override, dir string) error {
			assert.Equal(t, "invocation", got.Value(ctxKey{}))
			return buildsArtifact(got, o, dir)
		})

	_, err := r.Resolve(ctx, o)
	require.NoError(t, err)
}

func TestResolve_BrokenCacheRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	ctrl := gomock.NewController(t)
	r := NewResolver(file, NewMockBuilder(ctrl))

	_, err := r.Resolve(context.Background(), DefaultOverride())
	require.Error(t, err)
	assert.ErrorIs(t, err, errUtils.ErrCacheDir)
	assert.Equal(t, errUtils.ExitCodeInternal, errUtils.GetExitCode(err))
}

func TestResolve_RebuildsCollectedArtifact(t *testing.T) {
	r, builder := newTestResolver(t)
	o := VersionOverride(Stable, "1.78")
	entry := r.Entry(o)

	builder.EXPECT().Build(gomock.Any(), o, entry.Dir).DoAndReturn(buildsArtifact).Times(2)

	_, err := r.Resolve(context.Background(), o)
	require.NoError(t, err)

	// The store path behind the out-link was garbage collected.
	require.NoError(t, os.RemoveAll(entry.ArtifactPath()))

	_, err = r.Resolve(context.Background(), o)
	require.NoError(t, err)
}

func TestResolve_RejectsInvalidVersion(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "cache")
	ctrl := gomock.NewController(t)
	r := NewResolver(root, NewMockBuilder(ctrl), WithBackoff(0))

	for _, version := range []string{"../../escape", "1.78\xff", "a\x00b"} {
		_, err := r.Resolve(context.Background(), VersionOverride(Stable, version))
		require.Error(t, err)
		assert.ErrorIs(t, err, errUtils.ErrInvalidOverride)

		removed, err := r.Uninstall(VersionOverride(Stable, version))
		require.Error(t, err)
		assert.False(t, removed)
		assert.ErrorIs(t, err, errUtils.ErrInvalidOverride)
	}

	assert.NoDirExists(t, root)
	assert.NoDirExists(t, filepath.Join(parent, "escape"))
}

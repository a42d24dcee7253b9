package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/cloudposse/rustdn/errors"
)

func openMarker(t *testing.T) *os.File {
	t.Helper()

	f, err := os.OpenFile(filepath.Join(t.TempDir(), "lock"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestAcquireShared_Release(t *testing.T) {
	marker := openMarker(t)

	shared, err := AcquireShared(marker)
	require.NoError(t, err)
	assert.Equal(t, marker.Name(), shared.Path())

	shared.Release()
	assert.Empty(t, shared.Path())

	// Second release is a no-op.
	assert.NotPanics(t, shared.Release)
}

func TestAcquireShared_SameMarkerTwice(t *testing.T) {
	marker := openMarker(t)

	shared, err := AcquireShared(marker)
	require.NoError(t, err)
	defer shared.Release()

	_, err = AcquireShared(marker)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUtils.ErrLockHeld))
}

func TestAcquireShared_AfterRelease(t *testing.T) {
	marker := openMarker(t)

	first, err := AcquireShared(marker)
	require.NoError(t, err)
	first.Release()

	second, err := AcquireShared(marker)
	require.NoError(t, err)
	second.Release()
}

func TestUpgrade_ConsumesShared(t *testing.T) {
	marker := openMarker(t)

	shared, err := AcquireShared(marker)
	require.NoError(t, err)
	defer shared.Release()

	exclusive, err := Upgrade(shared)
	require.NoError(t, err)
	defer exclusive.Release()

	assert.Empty(t, shared.Path(), "shared lock should be consumed by the upgrade")
	assert.Equal(t, marker.Name(), exclusive.Path())

	// Releasing the consumed shared handle must not drop the exclusive lock's
	// registration.
	shared.Release()
	_, err = AcquireShared(marker)
	assert.True(t, errors.Is(err, errUtils.ErrLockHeld))
}

func TestUpgrade_ReleasedShared(t *testing.T) {
	marker := openMarker(t)

	shared, err := AcquireShared(marker)
	require.NoError(t, err)
	shared.Release()

	_, err = Upgrade(shared)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUtils.ErrLockUpgrade))
}

func TestLock_HeldCapability(t *testing.T) {
	var _ Held = (*Lock[Shared])(nil)
	var _ Held = (*Lock[Exclusive])(nil)
}

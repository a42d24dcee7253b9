package toolchain

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/pkg/filelock"
	"github.com/cloudposse/rustdn/pkg/filesystem"
)

// Names inside a cache entry directory.
const (
	MarkerName   = "lock"
	ArtifactName = "toolchain"
	SnapshotName = PinFileName
)

// Entry is the cache directory of one Override: <root>/<key>.
type Entry struct {
	Dir string
}

// NewEntry returns the entry of o under root.
func NewEntry(root string, o Override) Entry {
	return Entry{Dir: filepath.Join(root, o.Key())}
}

// MarkerPath is the lock marker coordinating access to the entry.
func (e Entry) MarkerPath() string { return filepath.Join(e.Dir, MarkerName) }

// ArtifactPath is the built toolchain, a Nix out-link.
func (e Entry) ArtifactPath() string { return filepath.Join(e.Dir, ArtifactName) }

// SnapshotPath is the copy of the pin file the artifact was built from.
func (e Entry) SnapshotPath() string { return filepath.Join(e.Dir, SnapshotName) }

// HasArtifact reports whether the artifact resolves. A dangling out-link,
// e.g. after the Nix store was garbage collected, counts as missing.
func (e Entry) HasArtifact() bool {
	return filesystem.Exists(e.ArtifactPath())
}

// openMarker creates the entry directory and opens its marker for reading
// and writing, creating it if needed.
func (e Entry) openMarker() (*os.File, error) {
	for {
		if err := os.MkdirAll(e.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errUtils.ErrCacheDir, e.Dir, err)
		}
		f, err := e.openExistingMarker()
		if errors.Is(err, fs.ErrNotExist) {
			// Purged by a failed build between the two calls.
			continue
		}
		return f, err
	}
}

// openExistingMarker opens the marker without creating the entry directory.
func (e Entry) openExistingMarker() (*os.File, error) {
	f, err := os.OpenFile(e.MarkerPath(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errUtils.ErrLockOpen, e.MarkerPath(), err)
	}
	return f, nil
}

// purge removes the entry directory and everything in it.
func (e Entry) purge() error {
	if err := os.RemoveAll(e.Dir); err != nil {
		return fmt.Errorf("%w: %s: %w", errUtils.ErrCachePurge, e.Dir, err)
	}
	return nil
}

// Trustworthy reports whether an existing artifact in e may be used for o
// without rebuilding. The caller must hold at least a shared lock on the
// entry marker.
//
//   - A pin file is trusted only while its current bytes equal the snapshot
//     taken at the last successful build. A missing snapshot is not trusted.
//   - An explicit version is trusted once built.
//   - A floating channel or the default is never trusted.
//
// An error means the pin file itself could not be read.
func Trustworthy(e Entry, o Override, _ filelock.Held) (bool, error) {
	switch o.Kind {
	case KindFile:
		current, err := os.ReadFile(o.Path)
		if err != nil {
			return false, fmt.Errorf("%w: %s: %w", errUtils.ErrPinFileRead, o.Path, err)
		}
		snapshot, err := os.ReadFile(e.SnapshotPath())
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %s: %w", errUtils.ErrCacheDir, e.SnapshotPath(), err)
		}
		return bytes.Equal(current, snapshot), nil

	case KindVersion:
		return o.HasVersion, nil

	default:
		return false, nil
	}
}

// Commit records whatever o needs to trust the artifact just built in e,
// under the exclusive lock. It reports whether the caller should check the
// entry again before using it: floating overrides are never trustworthy, so
// for them the fresh build is used as is.
func Commit(e Entry, o Override, _ *filelock.Lock[filelock.Exclusive]) (bool, error) {
	switch {
	case o.Kind == KindFile:
		data, err := os.ReadFile(o.Path)
		if err != nil {
			return false, fmt.Errorf("%w: %s: %w", errUtils.ErrPinFileRead, o.Path, err)
		}
		if err := filesystem.WriteFileAtomic(e.SnapshotPath(), data, 0o644); err != nil {
			return false, fmt.Errorf("%w: %s: %w", errUtils.ErrCacheCommit, e.SnapshotPath(), err)
		}
		return true, nil

	case o.Kind == KindVersion && o.HasVersion:
		return true, nil

	default:
		return false, nil
	}
}

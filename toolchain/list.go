package toolchain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/lo"

	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/pkg/filelock"
	"github.com/cloudposse/rustdn/pkg/filesystem"
	log "github.com/cloudposse/rustdn/pkg/logger"
)

// Installed describes one cache entry found under the root.
type Installed struct {
	Key      string
	Override Override
	Entry    Entry
	// Built is set when the artifact resolves.
	Built bool
	// BuiltAt is the modification time of the artifact link.
	BuiltAt time.Time
	// Snapshot is set when a pin file snapshot was committed.
	Snapshot bool
}

// ListInstalled enumerates the entries under root. Directory names that are
// not cache keys are skipped with a warning. A missing root lists nothing.
// Entries are read without locking and may be mid-build.
func ListInstalled(root string) ([]Installed, error) {
	dirents, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errUtils.ErrCacheDir, root, err)
	}

	dirs := lo.Filter(dirents, func(d os.DirEntry, _ int) bool { return d.IsDir() })

	installed := make([]Installed, 0, len(dirs))
	for _, d := range dirs {
		o, ok := FromKey(d.Name())
		if !ok {
			log.Warn("Skipping unrecognized toolchain cache entry", "root", root, "name", d.Name(), "error", errUtils.ErrInvalidCacheKey)
			continue
		}

		entry := NewEntry(root, o)
		item := Installed{Key: d.Name(), Override: o, Entry: entry}
		if info, err := os.Lstat(entry.ArtifactPath()); err == nil {
			item.Built = filesystem.Exists(entry.ArtifactPath())
			item.BuiltAt = info.ModTime()
		}
		item.Snapshot = filesystem.Exists(entry.SnapshotPath())
		installed = append(installed, item)
	}

	sortInstalled(installed)
	return installed, nil
}

// sortInstalled orders entries by kind (default, versions, files), then by
// channel, then newest version first. Versions that are not semver sort
// after the ones that are, alphabetically.
func sortInstalled(items []Installed) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Override, items[j].Override
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		switch a.Kind {
		case KindVersion:
			if a.Channel != b.Channel {
				return a.Channel < b.Channel
			}
			if a.HasVersion != b.HasVersion {
				// The floating channel first.
				return !a.HasVersion
			}
			return versionLess(b.Version, a.Version)
		case KindFile:
			return a.Path < b.Path
		default:
			return false
		}
	})
}

// versionLess compares versions as semver when both parse.
func versionLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if !va.Equal(vb) {
			return va.LessThan(vb)
		}
		return a < b
	case errA == nil:
		// Semver is "greater" so it sorts first in newest-first order.
		return false
	case errB == nil:
		return true
	default:
		return a > b
	}
}

// Uninstall removes the entry of o under the exclusive lock, so that no
// process is using or building it meanwhile. It reports false when nothing
// was installed.
func (r *Resolver) Uninstall(o Override) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}
	entry := r.Entry(o)

	for {
		if _, err := os.Stat(entry.Dir); errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		removed, next, err := r.uninstallPass(entry)
		if err != nil {
			return false, err
		}
		switch next {
		case outcomeDone:
			if removed {
				log.Debug("Removed toolchain entry", "override", o.String(), "entry", entry.Dir)
			}
			return removed, nil
		case outcomeBackoff:
			r.sleep(r.backoff)
		case outcomeRecheck:
		}
	}
}

func (r *Resolver) uninstallPass(entry Entry) (bool, outcome, error) {
	marker, err := entry.openExistingMarker()
	if errors.Is(err, fs.ErrNotExist) {
		// Removed since we looked.
		return false, outcomeDone, nil
	}
	if err != nil {
		return false, 0, errUtils.Internal(err)
	}
	defer marker.Close()

	shared, err := filelock.AcquireShared(marker)
	if err != nil {
		return false, 0, errUtils.Internal(err)
	}
	defer shared.Release()

	exclusive, err := filelock.Upgrade(shared)
	if errors.Is(err, errUtils.ErrLockDeadlock) {
		return false, outcomeBackoff, nil
	}
	if err != nil {
		return false, 0, errUtils.Internal(err)
	}
	defer exclusive.Release()

	stale, err := markerStale(marker)
	if err != nil {
		return false, 0, err
	}
	if stale {
		// Purged by a failed build while we waited.
		return false, outcomeRecheck, nil
	}

	if err := entry.purge(); err != nil {
		return false, 0, errUtils.Internal(err)
	}
	return true, outcomeDone, nil
}

// Package filelock implements whole-file POSIX advisory record locks
// (fcntl F_SETLKW) with a shared to exclusive upgrade.
//
// Record locks belong to a (process, file) pair: a second lock request from
// the same process on the same file silently replaces the first one, and
// closing any descriptor to the file drops every lock the process holds on
// it. This package therefore assumes that a process holds at most one lock on
// a given marker at a time, taken through a single descriptor which stays
// open for the life of the lock.
//
// Unlike flock(2), record locks give us kernel deadlock detection: when
// several processes holding shared locks all try to upgrade, all but (at
// most) one of them get EDEADLK instead of blocking forever. Upgrade releases
// the shared lock on that path so the remaining upgrader can proceed.
package filelock

import (
	"fmt"
	"os"
	"sync"

	errUtils "github.com/cloudposse/rustdn/errors"
	log "github.com/cloudposse/rustdn/pkg/logger"
)

// Shared tags a Lock held in shared (read) mode.
type Shared struct{}

// Exclusive tags a Lock held in exclusive (write) mode.
type Exclusive struct{}

// Mode is the set of lock modes.
type Mode interface {
	Shared | Exclusive
}

// Held is implemented by every live Lock regardless of mode. Functions that
// read state guarded by a marker take a Held to show that the caller holds
// at least a shared lock.
type Held interface {
	held()
}

// Lock is a held advisory lock on a marker file. The lock carries no data; it
// is only a capability proving the mode it was acquired in.
type Lock[M Mode] struct {
	file *os.File
}

func (l *Lock[M]) held() {}

// Path returns the marker path, or "" if the lock was released or consumed.
func (l *Lock[M]) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Release unlocks the marker. It is safe to call more than once and on a
// lock consumed by Upgrade; unlock errors are logged and otherwise ignored.
// The marker descriptor is left open, it belongs to the caller.
func (l *Lock[M]) Release() {
	f := l.take()
	if f == nil {
		return
	}
	release(f)
}

// take detaches the descriptor from the lock so that a later Release is a no-op.
func (l *Lock[M]) take() *os.File {
	f := l.file
	l.file = nil
	return f
}

// active records the markers this process holds a lock on. A second lock on
// the same marker would silently merge with the first at the kernel level.
var active = struct {
	sync.Mutex
	paths map[string]struct{}
}{paths: make(map[string]struct{})}

func register(f *os.File) error {
	active.Lock()
	defer active.Unlock()

	if _, ok := active.paths[f.Name()]; ok {
		return fmt.Errorf("%w: %s", errUtils.ErrLockHeld, f.Name())
	}
	active.paths[f.Name()] = struct{}{}
	return nil
}

func unregister(f *os.File) {
	active.Lock()
	defer active.Unlock()

	delete(active.paths, f.Name())
}

func release(f *os.File) {
	if err := unlock(f); err != nil {
		log.Trace("Failed to unlock marker", "path", f.Name(), "error", err)
	}
	unregister(f)
}

// AcquireShared blocks until a shared lock on marker is held.
// marker must be open for reading.
func AcquireShared(marker *os.File) (*Lock[Shared], error) {
	if err := register(marker); err != nil {
		return nil, err
	}
	if err := lockShared(marker); err != nil {
		unregister(marker)
		return nil, err
	}
	return &Lock[Shared]{file: marker}, nil
}

// Upgrade converts a shared lock into an exclusive one on the same
// descriptor, which must also be open for writing. It blocks until every
// other holder has released the marker.
//
// l is consumed whatever the outcome: on success the returned lock replaces
// it, and on error the shared lock has already been released. If the kernel
// detects that several processes are upgrading at once the error matches
// ErrLockDeadlock; callers should back off and start over with a fresh shared
// lock.
func Upgrade(l *Lock[Shared]) (*Lock[Exclusive], error) {
	f := l.take()
	if f == nil {
		return nil, fmt.Errorf("%w: shared lock was already released", errUtils.ErrLockUpgrade)
	}

	if err := lockExclusive(f); err != nil {
		// The kernel leaves the shared lock in place on failure; drop it so
		// the process that won the upgrade can make progress.
		release(f)
		return nil, err
	}

	return &Lock[Exclusive]{file: f}, nil
}

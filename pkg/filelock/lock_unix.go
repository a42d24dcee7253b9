//go:build unix

package filelock

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	errUtils "github.com/cloudposse/rustdn/errors"
)

// setLockWait applies a whole-file record lock of the given type, blocking
// until it can be granted. EINTR is retried.
func setLockWait(f *os.File, typ int16) error {
	flock := unix.Flock_t{
		Type:   typ,
		Whence: io.SeekStart,
		Start:  0,
		Len:    0, // Whole file, including bytes appended later.
	}

	for {
		err := unix.FcntlFlock(f.Fd(), unix.F_SETLKW, &flock)
		// When calling syscalls directly, we need to retry EINTR errors.
		// They mean the call was interrupted by a signal.
		if err != unix.EINTR {
			return err
		}
	}
}

func lockShared(f *os.File) error {
	if err := setLockWait(f, unix.F_RDLCK); err != nil {
		return fmt.Errorf("%w: %s: %w", errUtils.ErrLockAcquire, f.Name(), err)
	}
	return nil
}

func lockExclusive(f *os.File) error {
	err := setLockWait(f, unix.F_WRLCK)
	switch err {
	case nil:
		return nil
	case unix.EDEADLK:
		return fmt.Errorf("%w: %s: %w", errUtils.ErrLockDeadlock, f.Name(), err)
	default:
		return fmt.Errorf("%w: %s: %w", errUtils.ErrLockUpgrade, f.Name(), err)
	}
}

func unlock(f *os.File) error {
	flock := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: io.SeekStart,
	}
	return unix.FcntlFlock(f.Fd(), unix.F_SETLK, &flock)
}

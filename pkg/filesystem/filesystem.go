// Package filesystem holds the small file helpers the toolchain cache needs
// on top of the os package.
package filesystem

import (
	"errors"
	"io/fs"
	"os"
)

// WriteFileAtomic writes data to filename so that readers see either the old
// content or the new content, never a partial file.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return writeFileAtomic(filename, data, perm)
}

// StillLinked reports whether the open file f is still the file found at its
// own path. It is false once the path was removed or replaced by another file.
func StillLinked(f *os.File) (bool, error) {
	opened, err := f.Stat()
	if err != nil {
		return false, err
	}
	current, err := os.Stat(f.Name())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(opened, current), nil
}

// Exists reports whether path resolves to an existing file, following
// symlinks. A dangling symlink does not exist.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

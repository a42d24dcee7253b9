//go:build windows

package filesystem

import "os"

// Rename over an open file fails on Windows, so fall back to a plain write.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

//go:build !unix

package filelock

import (
	"os"

	errUtils "github.com/cloudposse/rustdn/errors"
)

func lockShared(*os.File) error {
	return errUtils.ErrUnsupportedPlatform
}

func lockExclusive(*os.File) error {
	return errUtils.ErrUnsupportedPlatform
}

func unlock(*os.File) error {
	return errUtils.ErrUnsupportedPlatform
}

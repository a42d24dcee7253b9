package errors

import "errors"

// Sentinel errors. Callers match them with errors.Is; the ErrorBuilder marks
// enriched errors with them so the match survives wrapping.
var (
	// Locking.
	ErrLockOpen            = errors.New("failed to open lock marker")
	ErrLockAcquire         = errors.New("failed to acquire shared lock")
	ErrLockUpgrade         = errors.New("failed to upgrade lock to exclusive")
	ErrLockDeadlock        = errors.New("lock upgrade would deadlock")
	ErrLockHeld            = errors.New("marker is already locked by this process")
	ErrUnsupportedPlatform = errors.New("advisory record locks are not supported on this platform")

	// Cache layout and identity.
	ErrCacheDir        = errors.New("failed to prepare toolchain cache directory")
	ErrCachePurge      = errors.New("failed to purge toolchain cache directory")
	ErrCacheCommit     = errors.New("failed to commit toolchain cache")
	ErrInvalidCacheKey = errors.New("invalid toolchain cache key")
	ErrPinFileRead     = errors.New("failed to read toolchain file")
	ErrPinFileParse    = errors.New("failed to parse toolchain file")

	// Override selection.
	ErrInvalidOverride = errors.New("invalid toolchain override")
	ErrInvalidChannel  = errors.New("invalid toolchain channel")

	// Builder.
	ErrBuildStart  = errors.New("failed to start toolchain builder")
	ErrBuildFailed = errors.New("toolchain build failed")

	// Proxy and commands.
	ErrToolNotFound      = errors.New("tool not found in toolchain")
	ErrToolchainNotFound = errors.New("toolchain is not installed")
	ErrNoToolName        = errors.New("could not determine tool name from program name")
	ErrConfigLoad        = errors.New("failed to load configuration")
	ErrToolExited        = errors.New("tool exited with a non-zero status")
	ErrHomeDir           = errors.New("could not determine home directory")
)

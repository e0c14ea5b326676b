package store

import "errors"

// Errors reported by the file store.
var (
	ErrLockTimeout   = errors.New("lock timeout")
	ErrLockFileOpen  = errors.New("failed to open lock file")
	ErrRecordVersion = errors.New("unsupported record version")
)

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

const (
	lockFileName = ".shelf.lock"
	filePerms    = 0o600
	lockPoll     = 10 * time.Millisecond
)

// LockTimeout is the timeout for acquiring the data directory lock.
const LockTimeout = 2 * time.Second

// fileLock is a held flock on the data directory's lock file. The lock file
// is never removed, so every process locks the same inode.
type fileLock struct {
	file *os.File
}

func (l *fileLock) release() {
	if l.file != nil {
		_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		_ = l.file.Close()
		l.file = nil
	}
}

func acquireLock(dir string) (*fileLock, error) {
	return acquireLockWithTimeout(dir, LockTimeout)
}

// acquireLockWithTimeout polls a non-blocking exclusive flock until it is
// granted or timeout passes.
func acquireLockWithTimeout(dir string, timeout time.Duration) (*fileLock, error) {
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dir, lockFileName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, filePerms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockFileOpen, err)
	}

	deadline := time.Now().Add(timeout)

	for {
		err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &fileLock{file: file}, nil
		}

		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = file.Close()

			return nil, fmt.Errorf("flock: %w", err)
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, dir)
		}

		time.Sleep(lockPoll)
	}
}

package infrastructure

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside a destination directory while a batch writes to it
const LockFileName = ".manga-dl.lock"

// ErrDirLocked is returned when another batch already holds the directory
var ErrDirLocked = errors.New("destination directory is in use by another batch")

// LockDir takes an exclusive, non-blocking lock on dir.
// The returned function releases it.
func LockDir(dir string) (func() error, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", dir, ErrDirLocked)
	}

	return lock.Unlock, nil
}

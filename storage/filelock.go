package storage

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock defines the interface for file locking operations
type FileLock interface {
	// TryLockContext attempts to acquire an exclusive lock with retries
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	// Unlock releases the lock
	Unlock() error
}

// LockFactory creates FileLock instances
type LockFactory interface {
	// New creates a new FileLock for the given path
	New(path string) FileLock
}

// FlockFactory creates advisory locks backed by github.com/gofrs/flock.
// It works with afero.OsFs and afero.BasePathFs only; paths on a base path
// filesystem are resolved to their real location.
type FlockFactory struct{}

// New implements LockFactory.New
func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}

// NoLockFactory hands out locks that always succeed. It is the default for
// filesystems that are not backed by the operating system.
type NoLockFactory struct{}

// New implements LockFactory.New
func (NoLockFactory) New(string) FileLock {
	return noLock{}
}

type noLock struct{}

func (noLock) TryLockContext(context.Context, time.Duration) (bool, error) { return true, nil }
func (noLock) Unlock() error                                               { return nil }

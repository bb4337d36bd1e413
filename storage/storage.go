// Package storage persists preference stores as flat files. Reads and writes
// take an advisory lock next to the file, and saves replace the file
// atomically.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/arthur-debert/nanoprefs/formats"
	"github.com/arthur-debert/nanoprefs/prefs"
)

// Constants for file locking
const (
	DefaultLockTimeout = 3 * time.Second
	lockMaxRetries     = 3
	lockRetryDelay     = 100 * time.Millisecond
)

// ErrLocked is returned when the file lock could not be acquired in time.
var ErrLocked = errors.New("settings file is locked")

// FileStorage reads and writes one settings file through a format.
type FileStorage struct {
	path        string
	format      *formats.Format
	fs          afero.Fs
	lockFactory LockFactory
	lockTimeout time.Duration
	logger      *slog.Logger
	readOpts    formats.ReadOptions
	writeOpts   formats.WriteOptions
}

// New creates a FileStorage for path. The format is chosen from the file
// extension unless WithFormat is given.
func New(path string, opts ...Option) (*FileStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", prefs.ErrInvalidArgument)
	}

	s := &FileStorage{
		path:        path,
		lockTimeout: DefaultLockTimeout,
		writeOpts:   formats.WriteOptions{Comments: true},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.format == nil {
		f, err := formats.ForPath(path)
		if err != nil {
			return nil, err
		}
		s.format = f
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.lockFactory == nil {
		if osBacked(s.fs) {
			s.lockFactory = FlockFactory{}
		} else {
			s.lockFactory = NoLockFactory{}
		}
	}
	if _, ok := s.lockFactory.(FlockFactory); ok && !osBacked(s.fs) {
		return nil, fmt.Errorf("%w: file locks need an operating system filesystem, got %s", prefs.ErrInvalidArgument, s.fs.Name())
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.readOpts.Logger == nil {
		s.readOpts.Logger = s.logger
	}
	return s, nil
}

// Path returns the settings file path.
func (s *FileStorage) Path() string { return s.path }

// Format returns the format used to encode the file.
func (s *FileStorage) Format() *formats.Format { return s.format }

func (s *FileStorage) lockPath() string {
	return s.path + ".lock"
}

// osBacked reports whether paths on fs map onto the operating system's
// filesystem, which is where flock places its lock files.
func osBacked(fs afero.Fs) bool {
	switch fs.(type) {
	case *afero.OsFs, *afero.BasePathFs:
		return true
	}
	return false
}

// lockFile returns the lock path as seen by the lock factory. Flock locks
// live on the operating system's filesystem, so base path filesystems are
// resolved to their real path.
func (s *FileStorage) lockFile() (string, error) {
	if _, ok := s.lockFactory.(FlockFactory); !ok {
		return s.lockPath(), nil
	}
	if base, ok := s.fs.(*afero.BasePathFs); ok {
		return base.RealPath(s.lockPath())
	}
	return s.lockPath(), nil
}

// withLock runs fn while holding the file lock.
func (s *FileStorage) withLock(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	lockFile, err := s.lockFile()
	if err != nil {
		return fmt.Errorf("failed to resolve lock path: %w", err)
	}
	lock := s.lockFactory.New(lockFile)
	if err := acquire(ctx, lock); err != nil {
		s.logger.Debug("lock not acquired", "path", lockFile, "error", err)
		return err
	}
	s.logger.Debug("lock acquired", "path", lockFile)
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release lock", "path", lockFile, "error", err)
		}
	}()

	return fn()
}

// acquire attempts to acquire the lock with retry logic
func acquire(ctx context.Context, lock FileLock) error {
	for range lockMaxRetries {
		locked, err := lock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", ErrLocked, err)
			}
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrLocked, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("%w: gave up after %d attempts", ErrLocked, lockMaxRetries)
}

// Exists reports whether the settings file exists.
func (s *FileStorage) Exists() (bool, error) {
	return afero.Exists(s.fs, s.path)
}

// Load reads the settings file into store. A missing or empty file leaves
// the store untouched, so preferences keep their defaults. The same holds
// when the file's directory does not exist yet; no lock is taken then.
func (s *FileStorage) Load(ctx context.Context, store *prefs.Store) error {
	if _, err := s.fs.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("settings directory missing, keeping defaults", "path", s.path)
		return nil
	}

	return s.withLock(ctx, func() error {
		data, err := afero.ReadFile(s.fs, s.path)
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("settings file missing, keeping defaults", "path", s.path)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		if len(data) == 0 {
			return nil
		}

		if err := s.format.Unmarshal(data, store, s.readOpts); err != nil {
			return fmt.Errorf("%s: %w", s.path, err)
		}
		s.logger.Debug("settings loaded", "path", s.path, "format", s.format.Name, "bytes", len(data))
		return nil
	})
}

// Save writes store to the settings file. The document is written to a
// temporary file in the same directory and renamed over the target.
func (s *FileStorage) Save(ctx context.Context, store *prefs.Store) error {
	data, err := s.format.Marshal(store, s.writeOpts)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.format.Name, err)
	}

	// The lock file lives next to the settings file.
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return s.withLock(ctx, func() error {
		tmpFile := filepath.Join(dir, "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")
		if err := afero.WriteFile(s.fs, tmpFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write temp file: %w", err)
		}
		if err := s.fs.Rename(tmpFile, s.path); err != nil {
			_ = s.fs.Remove(tmpFile)
			return fmt.Errorf("failed to rename file: %w", err)
		}

		s.logger.Debug("settings saved", "path", s.path, "format", s.format.Name, "bytes", len(data))
		return nil
	})
}

// Close removes the lock file left by flock.
func (s *FileStorage) Close() error {
	if _, ok := s.lockFactory.(FlockFactory); !ok {
		return nil
	}
	if err := s.fs.Remove(s.lockPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

package storage

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/arthur-debert/nanoprefs/formats"
)

// Option is a function that modifies FileStorage configuration
type Option func(*FileStorage)

// WithFs sets the filesystem the settings file is read from and written to
func WithFs(fs afero.Fs) Option {
	return func(s *FileStorage) {
		s.fs = fs
	}
}

// WithFormat overrides the format picked from the file extension
func WithFormat(f *formats.Format) Option {
	return func(s *FileStorage) {
		s.format = f
	}
}

// WithLockFactory sets a custom LockFactory implementation
func WithLockFactory(factory LockFactory) Option {
	return func(s *FileStorage) {
		s.lockFactory = factory
	}
}

// WithLockTimeout bounds how long Load and Save wait for the file lock
func WithLockTimeout(d time.Duration) Option {
	return func(s *FileStorage) {
		s.lockTimeout = d
	}
}

// WithLogger sets the logger used for lock and I/O diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileStorage) {
		s.logger = logger
	}
}

// WithWriteOptions sets the options passed to the format on Save
func WithWriteOptions(opts formats.WriteOptions) Option {
	return func(s *FileStorage) {
		s.writeOpts = opts
	}
}

// WithReadOptions sets the options passed to the format on Load. The
// storage logger is used when opts.Logger is nil.
func WithReadOptions(opts formats.ReadOptions) Option {
	return func(s *FileStorage) {
		s.readOpts = opts
	}
}

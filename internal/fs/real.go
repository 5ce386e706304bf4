package fs

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// Real implements [FS] using the real filesystem.
//
// Most methods are passthroughs to the [os] package with identical
// behavior and error semantics. The exceptions are [Real.Exists] which
// wraps [os.Stat], [Real.WriteFileAtomic] which writes a temp file and
// renames it into place, and [Real.Lock] which provides flock-based locking.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// A passthrough wrapper for [os.ReadFile].
func (*Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic writes data through a temp file in the same directory and
// renames it over path. New files get perm; existing files keep their mode.
func (*Real) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	err := atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return err
	}

	if created {
		return os.Chmod(path, perm)
	}

	return nil
}

// A passthrough wrapper for [os.ReadDir].
func (*Real) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// A passthrough wrapper for [os.MkdirAll].
func (*Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// A passthrough wrapper for [os.Stat].
func (*Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists checks if a file exists using [os.Stat].
// Returns (true, nil) if the file exists, (false, nil) if it does not,
// or (false, err) for other errors.
func (*Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// A passthrough wrapper for [os.Remove].
func (*Real) Remove(path string) error {
	return os.Remove(path)
}

const (
	lockTimeout = 2 * time.Second
	lockPerms   = 0o644
	dirPerms    = 0o755
)

// realLock holds an exclusive file lock.
type realLock struct {
	path string
	file *os.File
}

// Close releases the lock and removes the lock file.
// Order matters: remove while holding lock, then unlock, then close.
func (l *realLock) Close() error {
	if l.file == nil {
		return nil
	}

	_ = os.Remove(l.path)
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil

	return err
}

// Lock takes an exclusive flock on <dir>/.locks/<base>.lock.
//
// Lock files live in a .locks subdirectory so that locking never touches the
// guarded file itself. The inode is re-checked after acquisition to handle
// the race between flock and a concurrent release removing the lock file.
// Returns [os.ErrDeadlineExceeded] after the lock timeout.
func (*Real) Lock(path string) (Locker, error) {
	locksDir := filepath.Join(filepath.Dir(path), ".locks")
	lockPath := filepath.Join(locksDir, filepath.Base(path)+".lock")

	deadline := time.Now().Add(lockTimeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, os.ErrDeadlineExceeded
		}

		if err := os.MkdirAll(locksDir, dirPerms); err != nil {
			return nil, err
		}

		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, lockPerms)
		if err != nil {
			return nil, err
		}

		var openStat unix.Stat_t
		if err := unix.Fstat(int(file.Fd()), &openStat); err != nil {
			_ = file.Close()

			return nil, err
		}

		fd := int(file.Fd())
		done := make(chan error, 1)

		go func() {
			done <- unix.Flock(fd, unix.LOCK_EX)
		}()

		select {
		case err := <-done:
			if err != nil {
				_ = file.Close()

				return nil, err
			}

			var pathStat unix.Stat_t
			if err := unix.Stat(lockPath, &pathStat); err != nil || pathStat.Ino != openStat.Ino {
				// Lock file was deleted or replaced while we waited.
				_ = unix.Flock(fd, unix.LOCK_UN)
				_ = file.Close()

				continue
			}

			return &realLock{path: lockPath, file: file}, nil

		case <-time.After(remaining):
			// Closing the fd releases the flock if the goroutine gets it late.
			_ = file.Close()

			return nil, os.ErrDeadlineExceeded
		}
	}
}

// Compile-time interface check.
var _ FS = (*Real)(nil)

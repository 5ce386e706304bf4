// Package fs provides the filesystem abstraction behind the record store, the
// markdown rewriter and the workspace readers.
//
// The main types are:
//   - [FS]: interface for the filesystem operations lifeos needs
//   - [Real]: production implementation using [os], atomic renames and flock
//   - [Mem]: in-memory implementation for tests
//   - [Faulty]: wrapper that injects failures on chosen paths
//
// Example usage:
//
//	fsys := fs.NewReal()
//	data, err := fsys.ReadFile("data/tasks.json")
//	if err != nil {
//	    return err
//	}
package fs

import (
	"io"
	"os"
)

// Locker represents a held file lock.
// Call [Locker.Close] to release the lock.
//
// Example:
//
//	lock, err := fsys.Lock("data/tasks.json")
//	if err != nil {
//	    return err // lock contention or timeout
//	}
//	defer lock.Close() // always release
//
//	// ... exclusive access to data/tasks.json ...
type Locker interface {
	io.Closer
}

// FS defines the filesystem operations used by lifeos.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection. Implementations must be safe for
// concurrent use by multiple goroutines.
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// Readers observe either the old or the new content, never a mix.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory and returns its entries sorted by name.
	// See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	// Returns an error satisfying [os.IsNotExist] if the path doesn't exist.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Lock acquires an exclusive lock guarding path.
	// Blocks until the lock is acquired or returns an error on timeout.
	//
	// Used for coordinating writers across processes (the server and the
	// agent tools share one data directory).
	Lock(path string) (Locker, error)
}

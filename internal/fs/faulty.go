package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Op names a filesystem operation that [Faulty] can fail.
type Op string

// Operations understood by [Faulty].
const (
	OpRead    Op = "read"
	OpWrite   Op = "write"
	OpReadDir Op = "readdir"
	OpStat    Op = "stat"
	OpMkdir   Op = "mkdir"
	OpRemove  Op = "remove"
	OpLock    Op = "lock"
)

// InjectedError marks an error as intentionally injected by [Faulty].
//
// It wraps the underlying error so errors.Is/As continue to work, e.g.
// errors.Is(err, os.ErrPermission) for an injected permission failure.
type InjectedError struct {
	Op   Op
	Path string
	Err  error
}

// Error returns the injected error in *fs.PathError form.
func (e *InjectedError) Error() string {
	return (&iofs.PathError{Op: string(e.Op), Path: e.Path, Err: e.Err}).Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Faulty].
// Returns false if err is nil.
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Faulty wraps an [FS] and fails selected operations on selected paths.
//
// Rules match on the cleaned path. Operations without a matching rule pass
// through to the wrapped filesystem.
type Faulty struct {
	inner FS

	mu    sync.RWMutex
	rules map[faultKey]error
}

type faultKey struct {
	op   Op
	path string
}

// NewFaulty wraps inner. Panics if inner is nil.
func NewFaulty(inner FS) *Faulty {
	if inner == nil {
		panic("inner fs is nil")
	}

	return &Faulty{inner: inner, rules: make(map[faultKey]error)}
}

// Fail makes op on path return err until [Faulty.Heal] is called.
func (f *Faulty) Fail(op Op, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules[faultKey{op: op, path: filepath.Clean(path)}] = err
}

// Heal removes all injected failures.
func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()

	clear(f.rules)
}

func (f *Faulty) check(op Op, path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	path = filepath.Clean(path)

	err, ok := f.rules[faultKey{op: op, path: path}]
	if !ok {
		return nil
	}

	return &InjectedError{Op: op, Path: path, Err: err}
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpRead, path); err != nil {
		return nil, err
	}

	return f.inner.ReadFile(path)
}

func (f *Faulty) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWrite, path); err != nil {
		return err
	}

	return f.inner.WriteFileAtomic(path, data, perm)
}

func (f *Faulty) ReadDir(path string) ([]os.DirEntry, error) {
	if err := f.check(OpReadDir, path); err != nil {
		return nil, err
	}

	return f.inner.ReadDir(path)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdir, path); err != nil {
		return err
	}

	return f.inner.MkdirAll(path, perm)
}

func (f *Faulty) Stat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat, path); err != nil {
		return nil, err
	}

	return f.inner.Stat(path)
}

func (f *Faulty) Exists(path string) (bool, error) {
	if err := f.check(OpStat, path); err != nil {
		return false, err
	}

	return f.inner.Exists(path)
}

func (f *Faulty) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.inner.Remove(path)
}

func (f *Faulty) Lock(path string) (Locker, error) {
	if err := f.check(OpLock, path); err != nil {
		return nil, err
	}

	return f.inner.Lock(path)
}

// Compile-time interface check.
var _ FS = (*Faulty)(nil)

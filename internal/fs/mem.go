package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Mem implements [FS] in memory.
//
// It models just enough of a POSIX tree for the store and the workspace
// readers: files with content, mode and modification time, and directories.
// Writing a file requires its parent directory to exist, like [Real].
// Locks are process-local mutexes keyed by path.
type Mem struct {
	mu    sync.Mutex
	files map[string]*memFile
	dirs  map[string]time.Time
	locks map[string]*sync.Mutex
	now   func() time.Time
}

type memFile struct {
	data    []byte
	mode    os.FileMode
	modTime time.Time
}

// NewMem returns an empty in-memory filesystem containing only the root
// and current directories.
func NewMem() *Mem {
	return &Mem{
		files: make(map[string]*memFile),
		dirs:  map[string]time.Time{"/": {}, ".": {}},
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

// SetClock sets the time source used for modification times.
func (m *Mem) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = now
}

// SetModTime overrides the modification time of an existing file or directory.
func (m *Mem) SetModTime(path string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	if f, ok := m.files[path]; ok {
		f.modTime = t

		return nil
	}

	if _, ok := m.dirs[path]; ok {
		m.dirs[path] = t

		return nil
	}

	return pathErr("chtimes", path, os.ErrNotExist)
}

// ReadFile returns a copy of the file content.
func (m *Mem) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	f, ok := m.files[path]
	if !ok {
		if _, isDir := m.dirs[path]; isDir {
			return nil, pathErr("read", path, iofs.ErrInvalid)
		}

		return nil, pathErr("open", path, os.ErrNotExist)
	}

	return slices.Clone(f.data), nil
}

// WriteFileAtomic replaces the file content in one step.
func (m *Mem) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	if _, ok := m.dirs[filepath.Dir(path)]; !ok {
		return pathErr("open", path, os.ErrNotExist)
	}

	if _, isDir := m.dirs[path]; isDir {
		return pathErr("open", path, iofs.ErrExist)
	}

	mode := perm
	if existing, ok := m.files[path]; ok {
		mode = existing.mode
	}

	m.files[path] = &memFile{data: slices.Clone(data), mode: mode, modTime: m.now()}

	return nil
}

// ReadDir lists the direct children of path sorted by name.
func (m *Mem) ReadDir(path string) ([]os.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	if _, ok := m.dirs[path]; !ok {
		if _, isFile := m.files[path]; isFile {
			return nil, pathErr("readdirent", path, iofs.ErrInvalid)
		}

		return nil, pathErr("open", path, os.ErrNotExist)
	}

	var entries []os.DirEntry

	for name, f := range m.files {
		if filepath.Dir(name) == path {
			entries = append(entries, memEntry{memInfo{name: filepath.Base(name), size: int64(len(f.data)), mode: f.mode, modTime: f.modTime}})
		}
	}

	for name, modTime := range m.dirs {
		if name != path && filepath.Dir(name) == path {
			entries = append(entries, memEntry{memInfo{name: filepath.Base(name), mode: os.ModeDir | dirPerms, modTime: modTime}})
		}
	}

	slices.SortFunc(entries, func(a, b os.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return entries, nil
}

// MkdirAll creates path and any missing parents.
func (m *Mem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	for dir := path; ; dir = filepath.Dir(dir) {
		if _, isFile := m.files[dir]; isFile {
			return pathErr("mkdir", dir, iofs.ErrExist)
		}

		if _, ok := m.dirs[dir]; ok {
			break
		}

		m.dirs[dir] = m.now()

		if dir == filepath.Dir(dir) {
			break
		}
	}

	return nil
}

// Stat describes a file or directory.
func (m *Mem) Stat(path string) (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	if f, ok := m.files[path]; ok {
		return memInfo{name: filepath.Base(path), size: int64(len(f.data)), mode: f.mode, modTime: f.modTime}, nil
	}

	if modTime, ok := m.dirs[path]; ok {
		return memInfo{name: filepath.Base(path), mode: os.ModeDir | dirPerms, modTime: modTime}, nil
	}

	return nil, pathErr("stat", path, os.ErrNotExist)
}

// Exists reports whether path is a known file or directory.
func (m *Mem) Exists(path string) (bool, error) {
	_, err := m.Stat(path)
	if err != nil {
		// Stat only fails with ErrNotExist.
		return false, nil
	}

	return true, nil
}

// Remove deletes a file or an empty directory.
func (m *Mem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)

	if _, ok := m.files[path]; ok {
		delete(m.files, path)

		return nil
	}

	if _, ok := m.dirs[path]; !ok {
		return pathErr("remove", path, os.ErrNotExist)
	}

	for name := range m.files {
		if filepath.Dir(name) == path {
			return pathErr("remove", path, iofs.ErrExist)
		}
	}

	for name := range m.dirs {
		if name != path && filepath.Dir(name) == path {
			return pathErr("remove", path, iofs.ErrExist)
		}
	}

	delete(m.dirs, path)

	return nil
}

// Lock takes a process-local exclusive lock for path.
func (m *Mem) Lock(path string) (Locker, error) {
	m.mu.Lock()

	path = filepath.Clean(path)

	mu, ok := m.locks[path]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[path] = mu
	}

	m.mu.Unlock()

	mu.Lock()

	return &memLock{mu: mu}, nil
}

type memLock struct {
	once sync.Once
	mu   *sync.Mutex
}

func (l *memLock) Close() error {
	l.once.Do(l.mu.Unlock)

	return nil
}

type memInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() os.FileMode  { return i.mode }
func (i memInfo) ModTime() time.Time { return i.modTime }
func (i memInfo) IsDir() bool        { return i.mode.IsDir() }
func (memInfo) Sys() any             { return nil }

type memEntry struct {
	info memInfo
}

func (e memEntry) Name() string               { return e.info.name }
func (e memEntry) IsDir() bool                { return e.info.IsDir() }
func (e memEntry) Type() os.FileMode          { return e.info.mode.Type() }
func (e memEntry) Info() (os.FileInfo, error) { return e.info, nil }

func pathErr(op, path string, err error) error {
	return &iofs.PathError{Op: op, Path: path, Err: err}
}

// Compile-time interface check.
var _ FS = (*Mem)(nil)

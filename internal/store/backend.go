package store

import (
	"fmt"
	"io"
	"path/filepath"

	"lifeos/internal/fs"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
)

// Backend persists table documents.
//
// Load returns an error satisfying os.IsNotExist when the table has never
// been written. Save must replace the document atomically. Lock guards a
// table against writers in other processes.
type Backend interface {
	Load(table string) ([]byte, error)
	Save(table string, data []byte) error
	Lock(table string) (io.Closer, error)
}

// FileBackend stores each table as <dir>/<table>.json on an [fs.FS].
type FileBackend struct {
	fs  fs.FS
	dir string
}

// NewFileBackend returns a backend rooted at dir. Panics if fsys is nil.
func NewFileBackend(fsys fs.FS, dir string) *FileBackend {
	if fsys == nil {
		panic("fs is nil")
	}

	return &FileBackend{fs: fsys, dir: dir}
}

// NewMemBackend returns a file backend over a fresh in-memory filesystem.
func NewMemBackend() *FileBackend {
	return NewFileBackend(fs.NewMem(), "data")
}

// Path returns the document path of table.
func (b *FileBackend) Path(table string) string {
	return filepath.Join(b.dir, table+".json")
}

func (b *FileBackend) Load(table string) ([]byte, error) {
	return b.fs.ReadFile(b.Path(table))
}

func (b *FileBackend) Save(table string, data []byte) error {
	if err := b.fs.MkdirAll(b.dir, dirPerms); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	return b.fs.WriteFileAtomic(b.Path(table), data, filePerms)
}

func (b *FileBackend) Lock(table string) (io.Closer, error) {
	if err := b.fs.MkdirAll(b.dir, dirPerms); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	return b.fs.Lock(b.Path(table))
}

var _ Backend = (*FileBackend)(nil)

// Package workspace serves read-only views derived from the markdown
// workspace: inventory, content calendar, memory notes, projects, journal,
// analytics and the asset library.
//
// Every view is recomputed from disk on each call. A missing source reads as
// an empty view; other read failures are logged and degrade the same way.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"lifeos/internal/fs"
)

// Paths locates the workspace sources. Relative entries are resolved
// against Root.
type Paths struct {
	Root      string
	Inventory string
	Calendar  string
	Memory    string
	Projects  string
	Journal   string
	Assets    string
}

// DefaultPaths returns the standard layout under root.
func DefaultPaths(root string) Paths {
	return Paths{
		Root:      root,
		Inventory: "INVENTORY.md",
		Calendar:  "content_calendar_a_few_things.md",
		Memory:    "MEMORY.md",
		Projects:  "projects",
		Journal:   filepath.Join("memory", "journal"),
		Assets:    "assets",
	}
}

// Counter reports the number of records in a table. Analytics uses it for
// the task and finance totals.
type Counter interface {
	Count(ctx context.Context, table string) int
}

// Reader builds the workspace views.
type Reader struct {
	fs      fs.FS
	paths   Paths
	counter Counter
	log     *slog.Logger
}

// NewReader returns a reader over fsys. counter may be nil, in which case
// analytics report zero records.
func NewReader(fsys fs.FS, paths Paths, counter Counter, log *slog.Logger) *Reader {
	if fsys == nil {
		panic("fs is nil")
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Reader{fs: fsys, paths: paths, counter: counter, log: log}
}

func (r *Reader) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(r.paths.Root, p)
}

// readText returns the content of a source file, or "" when it cannot be
// read.
func (r *Reader) readText(ctx context.Context, rel string) string {
	path := r.resolve(rel)

	data, err := r.fs.ReadFile(path)
	if err != nil {
		r.unavailable(ctx, path, err)

		return ""
	}

	return string(data)
}

// readDir lists a source directory, or nothing when it cannot be read.
func (r *Reader) readDir(ctx context.Context, path string) []os.DirEntry {
	entries, err := r.fs.ReadDir(path)
	if err != nil {
		r.unavailable(ctx, path, err)

		return nil
	}

	return entries
}

func (r *Reader) unavailable(ctx context.Context, path string, err error) {
	if errors.Is(err, os.ErrNotExist) {
		r.log.DebugContext(ctx, "workspace source missing", "path", path)

		return
	}

	r.log.WarnContext(ctx, "workspace source unreadable", "path", path, "error", err)
}

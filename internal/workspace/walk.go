package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Directory names a walk does not descend into, besides dot directories.
var (
	analyticsSkips = map[string]bool{"node_modules": true, "dashboard": true}
	assetSkips     = map[string]bool{"node_modules": true}
)

// walkFn receives each regular file with its path relative to the walk root.
type walkFn func(path, rel string, info os.FileInfo)

// walk visits the files below root depth first in name order. Dot entries
// and directories named in skip are ignored. Unreadable subtrees are logged
// and skipped.
func (r *Reader) walk(ctx context.Context, root string, skip map[string]bool, fn walkFn) {
	r.walkDir(ctx, root, "", skip, fn)
}

func (r *Reader) walkDir(ctx context.Context, dir, rel string, skip map[string]bool, fn walkFn) {
	if ctx.Err() != nil {
		return
	}

	for _, entry := range r.readDir(ctx, dir) {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		childRel := filepath.Join(rel, name)

		if entry.IsDir() {
			if !skip[name] {
				r.walkDir(ctx, path, childRel, skip, fn)
			}

			continue
		}

		info, err := entry.Info()
		if err != nil {
			r.unavailable(ctx, path, err)

			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		fn(path, childRel, info)
	}
}

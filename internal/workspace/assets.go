package workspace

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Asset is one file of the asset library.
type Asset struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Type     string    `json:"type"`
}

// Assets groups the asset library by directory relative to the assets root.
// Files directly in the root are grouped under "".
func (r *Reader) Assets(ctx context.Context) map[string][]Asset {
	categories := map[string][]Asset{}

	r.walk(ctx, r.resolve(r.paths.Assets), assetSkips, func(_, rel string, info os.FileInfo) {
		category := filepath.Dir(rel)
		if category == "." {
			category = ""
		}

		categories[category] = append(categories[category], Asset{
			Name:     info.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
			Type:     filepath.Ext(info.Name()),
		})
	})

	return categories
}

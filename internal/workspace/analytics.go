package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Analytics summarizes workspace activity.
type Analytics struct {
	TotalFiles    int        `json:"totalFiles"`
	TotalSize     int64      `json:"totalSize"`
	ProjectCount  int        `json:"projectCount"`
	MemoryEntries int        `json:"memoryEntries"`
	LastActivity  *time.Time `json:"lastActivity"`
	TaskCount     int        `json:"taskCount"`
	FinanceCount  int        `json:"financeCount"`
}

// Analytics counts the markdown files of the workspace. Files under the
// projects directory count as projects, and every non-blank line of the
// memory document is one memory entry. LastActivity is the newest markdown
// modification time, or nil for an empty workspace.
func (r *Reader) Analytics(ctx context.Context) Analytics {
	var stats Analytics

	root := filepath.Clean(r.paths.Root)
	projectsDir := filepath.Clean(r.resolve(r.paths.Projects))
	memoryPath := filepath.Clean(r.resolve(r.paths.Memory))

	r.walk(ctx, root, analyticsSkips, func(path, _ string, info os.FileInfo) {
		if !isMarkdown(info.Name()) {
			return
		}

		stats.TotalFiles++
		stats.TotalSize += info.Size()

		if within(projectsDir, path) {
			stats.ProjectCount++
		}

		if path == memoryPath {
			stats.MemoryEntries = countNonBlank(r.readText(ctx, path))
		}

		if mod := info.ModTime(); stats.LastActivity == nil || mod.After(*stats.LastActivity) {
			stats.LastActivity = &mod
		}
	})

	if r.counter != nil {
		stats.TaskCount = r.counter.Count(ctx, "tasks")
		stats.FinanceCount = r.counter.Count(ctx, "finances")
	}

	return stats
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)

	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func countNonBlank(text string) int {
	n := 0

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}

	return n
}

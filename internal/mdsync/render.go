// Package mdsync keeps the "Next Actions" section of a markdown document in
// step with the task table.
//
// The table is the source of truth. Every task write regenerates the managed
// section and leaves the rest of the document byte-identical. Edits made by
// hand inside the managed section are lost on the next sync.
package mdsync

import (
	"strings"

	"lifeos/internal/store"
)

// Heading is the first line of the managed section.
const Heading = "## Next Actions (Synced from Dashboard)"

// CompletedHeading introduces the list of recently completed tasks.
const CompletedHeading = "### Recently Completed"

// sectionMarker identifies an existing managed section, with or without the
// "(Synced from Dashboard)" suffix.
const sectionMarker = "## Next Actions"

// MaxCompleted bounds the number of completed tasks rendered.
const MaxCompleted = 5

// StatusCompleted marks a task as done.
const StatusCompleted = "completed"

const untitled = "(untitled)"

// Render returns the managed section for tasks, ending in a newline.
//
// Tasks whose status is not "completed" become open checklist items in table
// order. The last [MaxCompleted] completed tasks follow under
// [CompletedHeading]; the block is omitted when nothing is completed.
func Render(tasks []store.Record) string {
	var (
		active    []string
		completed []string
	)

	for _, task := range tasks {
		if task.Status() == StatusCompleted {
			completed = append(completed, label(task))
		} else {
			active = append(active, label(task))
		}
	}

	if len(completed) > MaxCompleted {
		completed = completed[len(completed)-MaxCompleted:]
	}

	var b strings.Builder

	b.WriteString(Heading)
	b.WriteByte('\n')

	for _, item := range active {
		b.WriteString("- [ ] ")
		b.WriteString(item)
		b.WriteByte('\n')
	}

	if len(completed) > 0 {
		b.WriteByte('\n')
		b.WriteString(CompletedHeading)
		b.WriteByte('\n')

		for _, item := range completed {
			b.WriteString("- [x] ")
			b.WriteString(item)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// label picks description over title. Newlines would break the checklist,
// so they are folded into spaces.
func label(task store.Record) string {
	text := task.String("description")
	if strings.TrimSpace(text) == "" {
		text = task.String("title")
	}

	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return untitled
	}

	return text
}

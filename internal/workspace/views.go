package workspace

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"lifeos/internal/extract"
)

// Inventory is the parsed inventory table plus the raw document.
type Inventory struct {
	Items []extract.InventoryItem `json:"items"`
	Raw   string                  `json:"raw"`
}

// Inventory reads the inventory document.
func (r *Reader) Inventory(ctx context.Context) Inventory {
	raw := r.readText(ctx, r.paths.Inventory)

	return Inventory{Items: extract.ParseInventory(raw), Raw: raw}
}

// Calendar reads the content calendar.
func (r *Reader) Calendar(ctx context.Context) extract.Calendar {
	return extract.ParseCalendar(r.readText(ctx, r.paths.Calendar))
}

// Memory reads the long-term memory notes as sections.
func (r *Reader) Memory(ctx context.Context) extract.Sections {
	return extract.ParseSections(r.readText(ctx, r.paths.Memory))
}

// Project summarizes one project document.
type Project struct {
	Filename string `json:"filename"`
	extract.ProjectMeta
	LastModified time.Time `json:"lastModified"`
}

// Projects summarizes every markdown file of the projects directory in
// name order. A document without a title is named after its file.
func (r *Reader) Projects(ctx context.Context) []Project {
	dir := r.resolve(r.paths.Projects)
	projects := []Project{}

	for _, entry := range r.readDir(ctx, dir) {
		if entry.IsDir() || !isMarkdown(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		data, err := r.fs.ReadFile(path)
		if err != nil {
			r.unavailable(ctx, path, err)

			continue
		}

		meta := extract.ParseProject(string(data))
		if meta.Title == "" {
			meta.Title = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}

		project := Project{Filename: entry.Name(), ProjectMeta: meta}

		if info, err := r.fs.Stat(path); err == nil {
			project.LastModified = info.ModTime()
		}

		projects = append(projects, project)
	}

	return projects
}

// JournalEntry is one dated journal file.
type JournalEntry struct {
	Filename string `json:"filename"`
	Date     string `json:"date"`
	Content  string `json:"content"`
}

// Journal returns every journal entry, newest first. The date is the file
// name without its extension, so "2025-02-25.md" sorts by day.
func (r *Reader) Journal(ctx context.Context) []JournalEntry {
	dir := r.resolve(r.paths.Journal)
	entries := []JournalEntry{}

	for _, entry := range r.readDir(ctx, dir) {
		if entry.IsDir() || !isMarkdown(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		data, err := r.fs.ReadFile(path)
		if err != nil {
			r.unavailable(ctx, path, err)

			continue
		}

		entries = append(entries, JournalEntry{
			Filename: entry.Name(),
			Date:     strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Content:  string(data),
		})
	}

	slices.SortStableFunc(entries, func(a, b JournalEntry) int {
		return strings.Compare(b.Date, a.Date)
	})

	return entries
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md") && !strings.HasPrefix(name, ".")
}

package extract

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Project defaults for documents that do not state them.
const (
	DefaultProjectStatus   = "Concept Phase"
	DefaultProjectCategory = "Uncategorized"
)

// ProjectMeta is the summary of one project document.
type ProjectMeta struct {
	Title    string   `json:"title"    yaml:"title"`
	Status   string   `json:"status"   yaml:"status"`
	Category string   `json:"category" yaml:"category"`
	Tags     []string `json:"tags"     yaml:"tags"`
}

// ParseProject reads the project summary from text.
//
// YAML front matter wins when present and valid. Otherwise, and for every
// field the front matter leaves empty, the body is scanned: the first "# "
// heading is the title and the last lines containing "Status:" and
// "Category:" supply those fields.
func ParseProject(text string) ProjectMeta {
	meta, body := splitFrontMatter(text)

	var scanned ProjectMeta

	for _, line := range lines(body) {
		if scanned.Title == "" {
			if title, ok := headingText(line, 1); ok {
				scanned.Title = stripEmphasis(title)
			}
		}

		if value, ok := labelValue(line, "Status:"); ok {
			scanned.Status = value
		}

		if value, ok := labelValue(line, "Category:"); ok {
			scanned.Category = value
		}
	}

	meta.Title = firstNonEmpty(meta.Title, scanned.Title)
	meta.Status = firstNonEmpty(meta.Status, scanned.Status, DefaultProjectStatus)
	meta.Category = firstNonEmpty(meta.Category, scanned.Category, DefaultProjectCategory)

	if meta.Tags == nil {
		meta.Tags = []string{}
	}

	return meta
}

// splitFrontMatter separates a leading "---" YAML block from the body.
// Invalid or unterminated front matter is treated as body text.
func splitFrontMatter(text string) (ProjectMeta, string) {
	all := lines(text)
	if len(all) == 0 || strings.TrimSpace(all[0]) != "---" {
		return ProjectMeta{}, text
	}

	for i := 1; i < len(all); i++ {
		if strings.TrimSpace(all[i]) != "---" {
			continue
		}

		var meta ProjectMeta

		err := yaml.Unmarshal([]byte(strings.Join(all[1:i], "\n")), &meta)
		if err != nil {
			return ProjectMeta{}, text
		}

		meta.Title = strings.TrimSpace(meta.Title)
		meta.Status = strings.TrimSpace(meta.Status)
		meta.Category = strings.TrimSpace(meta.Category)

		return meta, strings.Join(all[i+1:], "\n")
	}

	return ProjectMeta{}, text
}

// labelValue returns the text after label on line, without emphasis markers.
func labelValue(line, label string) (string, bool) {
	_, after, ok := strings.Cut(line, label)
	if !ok {
		return "", false
	}

	value := stripEmphasis(after)
	if value == "" {
		return "", false
	}

	return value, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

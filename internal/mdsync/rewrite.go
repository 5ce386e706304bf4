package mdsync

import (
	"strings"

	"lifeos/internal/store"
)

// Rewrite returns doc with the managed section regenerated from tasks.
//
// The section starts at the first line beginning with "## Next Actions"
// outside fenced code and runs up to the next level 1 or 2 heading, or the
// end of the document. If no such line exists the section is appended after
// a blank line. Content outside the section is preserved byte for byte, and
// the section uses the document's line ending.
func Rewrite(doc string, tasks []store.Record) string {
	nl := lineEnding(doc)

	section := Render(tasks)
	if nl != "\n" {
		section = strings.ReplaceAll(section, "\n", nl)
	}

	start, end, found := locate(doc)
	if !found {
		return appendSection(doc, section, nl)
	}

	if end < len(doc) {
		// Keep one blank line between the section and the next heading.
		section += nl
	}

	return doc[:start] + section + doc[end:]
}

func appendSection(doc, section, nl string) string {
	switch {
	case doc == "":
		return section
	case strings.HasSuffix(doc, nl+nl):
		return doc + section
	case strings.HasSuffix(doc, nl):
		return doc + nl + section
	default:
		return doc + nl + nl + section
	}
}

// lineEnding is "\r\n" when the first line of doc ends that way, else "\n".
func lineEnding(doc string) string {
	if i := strings.IndexByte(doc, '\n'); i > 0 && doc[i-1] == '\r' {
		return "\r\n"
	}

	return "\n"
}

// locate returns the byte range of the managed section.
func locate(doc string) (start, end int, found bool) {
	inFence := false
	offset := 0

	for offset < len(doc) {
		lineEnd := strings.IndexByte(doc[offset:], '\n')

		next := len(doc)
		if lineEnd >= 0 {
			next = offset + lineEnd + 1
		}

		line := strings.TrimRight(doc[offset:next], "\r\n")

		switch {
		case isFence(line):
			inFence = !inFence
		case inFence:
		case !found && strings.HasPrefix(line, sectionMarker):
			start, found = offset, true
		case found && isTopHeading(line):
			return start, offset, true
		}

		offset = next
	}

	return start, len(doc), found
}

func isFence(line string) bool {
	trimmed := strings.TrimLeft(line, " ")

	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// isTopHeading reports whether line is an ATX heading of level 1 or 2.
func isTopHeading(line string) bool {
	for _, prefix := range []string{"# ", "## "} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}

	return line == "#" || line == "##"
}

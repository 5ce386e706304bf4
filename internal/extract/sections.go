package extract

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Section is one "## " section of a notes document.
type Section struct {
	Name  string
	Lines []string
}

// Sections is an ordered section list. It marshals to a JSON object keyed by
// section name in document order.
type Sections []Section

// Get returns the lines of the section called name.
func (s Sections) Get(name string) ([]string, bool) {
	for _, sec := range s {
		if sec.Name == name {
			return sec.Lines, true
		}
	}

	return nil, false
}

// MarshalJSON encodes the sections as an object, preserving order.
func (s Sections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, sec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(sec.Name)
		if err != nil {
			return nil, err
		}

		lines := sec.Lines
		if lines == nil {
			lines = []string{}
		}

		value, err := json.Marshal(lines)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

type sectionState int

const (
	sectionSeeking sectionState = iota
	sectionInBody
)

// ParseSections maps every "## " heading to the content lines below it.
//
// Content lines are trimmed. Blank lines and decoration are skipped:
// lines starting with "*", thematic breaks and HTML comments. Lines before
// the first section are dropped. A repeated heading starts over with an empty line list, in the
// position of its first occurrence.
func ParseSections(text string) Sections {
	out := Sections{}
	state := sectionSeeking
	current := -1

	for _, line := range lines(text) {
		if name, ok := headingText(line, 2); ok {
			current = indexOf(out, name)
			if current < 0 {
				out = append(out, Section{Name: name, Lines: []string{}})
				current = len(out) - 1
			} else {
				out[current].Lines = []string{}
			}

			state = sectionInBody

			continue
		}

		if state != sectionInBody {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(line, "*") || isDecoration(trimmed) {
			continue
		}

		out[current].Lines = append(out[current].Lines, trimmed)
	}

	return out
}

func indexOf(s Sections, name string) int {
	for i, sec := range s {
		if sec.Name == name {
			return i
		}
	}

	return -1
}

// isDecoration reports whether a trimmed line carries no content.
func isDecoration(line string) bool {
	if strings.HasPrefix(line, "<!--") && strings.HasSuffix(line, "-->") {
		return true
	}

	compact := strings.ReplaceAll(line, " ", "")
	if len(compact) < 3 {
		return false
	}

	for _, marker := range []string{"-", "*", "_"} {
		if strings.Trim(compact, marker) == "" {
			return true
		}
	}

	return false
}

// Package extract pulls structured fields out of loosely formatted markdown.
//
// Every extractor is a pure function of the document text. Input is never
// rejected: malformed documents yield partial or empty results, and no input
// makes an extractor panic. Each one is a small line-oriented state machine.
package extract

import "strings"

// lines splits text into lines without their terminators. CRLF is accepted.
func lines(text string) []string {
	if text == "" {
		return nil
	}

	out := strings.Split(text, "\n")
	for i, line := range out {
		out[i] = strings.TrimSuffix(line, "\r")
	}

	return out
}

// headingText returns the text of an ATX heading of exactly level, or false.
func headingText(line string, level int) (string, bool) {
	prefix := strings.Repeat("#", level) + " "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}

	return strings.TrimSpace(line[len(prefix):]), true
}

// headingLevel returns the ATX heading level of line, or 0.
func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}

	if level == 0 || level > 6 {
		return 0
	}

	if level < len(line) && line[level] != ' ' && line[level] != '\t' {
		return 0
	}

	return level
}

// stripEmphasis removes bold and italic markers around s.
func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")

	return strings.TrimSpace(strings.Trim(s, "*_"))
}

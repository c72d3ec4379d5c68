// Package titles finds numbered project titles in a knowledge source.
package titles

import (
	"regexp"
	"strings"
)

// titlePattern matches either "<n>.<title>" anywhere in a line or, at the
// start of a line, "<n> <Title>" where the title begins with a letter.
var titlePattern = regexp.MustCompile(`\d+\.\s*(.+)|\n\d+[ \t]+([A-Za-z].+)`)

// Extract returns the unique titles in text in first-occurrence order.
// Titles are trimmed and compared exactly; an empty result is valid.
func Extract(text string) []string {
	matches := titlePattern.FindAllStringSubmatch(text, -1)

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		title := m[1]
		if title == "" {
			title = m[2]
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}

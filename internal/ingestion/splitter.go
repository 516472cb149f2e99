package ingestion

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitAtTwoLevels splits markdown before every top-level "# " heading and
// then splits each part before every "## " heading. Chunks are trimmed and
// empty chunks dropped. A heading on the very first line starts the first
// chunk rather than causing a split.
func SplitAtTwoLevels(markdown string) []string {
	var out []string
	for _, section := range splitBeforeHeading(markdown, "#") {
		out = append(out, splitBeforeHeading(section, "##")...)
	}
	return out
}

// splitBeforeHeading cuts s at each newline that is immediately followed by
// exactly hashes and then whitespace. The newline itself is dropped.
func splitBeforeHeading(s, hashes string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' || !startsHeading(s[i+1:], hashes) {
			continue
		}
		parts = append(parts, s[start:i])
		start = i + 1
	}
	parts = append(parts, s[start:])

	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func startsHeading(rest, hashes string) bool {
	if !strings.HasPrefix(rest, hashes) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest[len(hashes):])
	return r != utf8.RuneError && unicode.IsSpace(r)
}

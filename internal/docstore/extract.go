package docstore

import "strings"

// ContentExtractor derives the text that is embedded for a document.
type ContentExtractor func(Document) string

// RawContent embeds the document content unchanged.
func RawContent(d Document) string { return d.Content }

// MarkdownContent embeds the content with markdown markup stripped.
func MarkdownContent(d Document) string { return RemoveMarkdownCharacters(d.Content) }

// RemoveMarkdownCharacters strips the markup that skews embeddings: the
// first "*" and the first "**" become spaces, every "#" becomes a space,
// newlines are dropped and code fences become spaces.
func RemoveMarkdownCharacters(s string) string {
	s = strings.Replace(s, "*", " ", 1)
	s = strings.Replace(s, "**", " ", 1)
	s = strings.ReplaceAll(s, "#", " ")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "```", " ")
	return s
}

// vectorContent is the string actually embedded for d.
func vectorContent(extract ContentExtractor, d Document, additionalContext string) string {
	return extract(d) + " " + additionalContext
}

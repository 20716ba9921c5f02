package search

import (
	"strings"
	"unicode"
)

// Snippet extraction: a bounded excerpt around a case-insensitive match,
// with the matched span wrapped in <b>…</b> preserving its original casing
// and ellipses marking truncated ends.

const (
	// DefaultContextSize is the number of characters kept on each side of
	// a match.
	DefaultContextSize = 50

	highlightOpen  = "<b>"
	highlightClose = "</b>"
	ellipsis       = "…"
)

// Extract returns a highlighted context window around the first
// case-insensitive occurrence of query in text, or "" when query is empty
// or absent. Offsets are in runes, so multi-byte text truncates cleanly.
func Extract(text, query string, contextSize int) string {
	if query == "" {
		return ""
	}
	if contextSize < 0 {
		contextSize = DefaultContextSize
	}

	runes := []rune(text)
	q := []rune(query)
	i := indexFold(runes, q, 0)
	if i < 0 {
		return ""
	}
	return renderSnippet(runes, i, len(q), contextSize)
}

// ExtractAll returns one snippet per non-overlapping occurrence of query,
// scanning left to right and advancing past each match.
func ExtractAll(text, query string, contextSize int) []string {
	if query == "" {
		return nil
	}
	if contextSize < 0 {
		contextSize = DefaultContextSize
	}

	runes := []rune(text)
	q := []rune(query)

	var snippets []string
	for cursor := 0; ; {
		i := indexFold(runes, q, cursor)
		if i < 0 {
			break
		}
		snippets = append(snippets, renderSnippet(runes, i, len(q), contextSize))
		cursor = i + len(q)
	}
	return snippets
}

// renderSnippet builds the window [i-contextSize, i+qlen+contextSize]
// around the match at rune offset i.
func renderSnippet(runes []rune, i, qlen, contextSize int) string {
	start := i - contextSize
	if start < 0 {
		start = 0
	}
	end := i + qlen + contextSize
	if end > len(runes) {
		end = len(runes)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[start:i]))
	b.WriteString(highlightOpen)
	b.WriteString(string(runes[i : i+qlen]))
	b.WriteString(highlightClose)
	b.WriteString(string(runes[i+qlen : end]))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// indexFold returns the rune offset of the first case-insensitive
// occurrence of query in text at or after from, or -1. Folding is done per
// rune so offsets stay valid in the original text.
func indexFold(text, query []rune, from int) int {
	if len(query) == 0 || from < 0 {
		return -1
	}
	for i := from; i+len(query) <= len(text); i++ {
		if equalFoldAt(text, query, i) {
			return i
		}
	}
	return -1
}

func equalFoldAt(text, query []rune, at int) bool {
	for j, qr := range query {
		if unicode.ToLower(text[at+j]) != unicode.ToLower(qr) {
			return false
		}
	}
	return true
}

// containsFold reports whether text contains query, case-insensitively.
func containsFold(text, query string) bool {
	if query == "" {
		return false
	}
	// Fast path for ASCII-only inputs.
	if isASCII(text) && isASCII(query) {
		return strings.Contains(strings.ToLower(text), strings.ToLower(query))
	}
	return indexFold([]rune(text), []rune(query), 0) >= 0
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

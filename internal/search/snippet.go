package search

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultWindow is the number of characters kept on each side of a match.
	DefaultWindow = 1000
	// DefaultPreviewLength is the length of a content preview.
	DefaultPreviewLength = 1000

	ellipsis = "..."
)

// literalPattern matches query as literal text, ignoring case. It returns
// nil for an empty query.
func literalPattern(query string) *regexp.Regexp {
	if query == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
}

// ExtractSnippet returns the text around the first case-insensitive literal
// occurrence of query in text: window characters before the match start
// through window characters after the match end, with an ellipsis on each
// clipped side.
//
// When query does not occur, the snippet is the first 2*window characters
// of text with a trailing ellipsis if truncated, and found is false.
func ExtractSnippet(text, query string, window int) (snippet string, found bool) {
	return extractSnippet(text, literalPattern(query), window)
}

// extractSnippet is ExtractSnippet with a compiled pattern. A nil pattern
// never matches.
func extractSnippet(text string, pattern *regexp.Regexp, window int) (snippet string, found bool) {
	if window < 0 {
		window = 0
	}

	if pattern != nil {
		if loc := pattern.FindStringIndex(text); loc != nil {
			start := backRunes(text, loc[0], window)
			end := forwardRunes(text, loc[1], window)

			snippet = text[start:end]
			if start > 0 {
				snippet = ellipsis + snippet
			}
			if end < len(text) {
				snippet += ellipsis
			}
			return snippet, true
		}
	}

	return Preview(text, 2*window), false
}

// Preview returns the first n characters of text, followed by an ellipsis
// if text is longer.
func Preview(text string, n int) string {
	if n < 0 {
		n = 0
	}
	end := forwardRunes(text, 0, n)
	if end < len(text) {
		return text[:end] + ellipsis
	}
	return text
}

// Highlight rewrites text so that every case-insensitive literal occurrence
// of query is passed through mark and the text between occurrences through
// plain. An empty query marks nothing.
func Highlight(text, query string, plain, mark func(string) string) string {
	return highlight(text, literalPattern(query), plain, mark)
}

func highlight(text string, pattern *regexp.Regexp, plain, mark func(string) string) string {
	if pattern == nil {
		return plain(text)
	}

	var b strings.Builder
	prev := 0
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		b.WriteString(plain(text[prev:loc[0]]))
		b.WriteString(mark(text[loc[0]:loc[1]]))
		prev = loc[1]
	}
	b.WriteString(plain(text[prev:]))
	return b.String()
}

// HTMLHighlight escapes text for HTML and wraps every occurrence of query in
// a highlight span.
func HTMLHighlight(text, query string) string {
	return htmlHighlight(text, literalPattern(query))
}

func htmlHighlight(text string, pattern *regexp.Regexp) string {
	return highlight(text, pattern, html.EscapeString, func(m string) string {
		return `<span class="highlight">` + html.EscapeString(m) + `</span>`
	})
}

// backRunes returns the byte offset n characters before i, or 0.
func backRunes(s string, i, n int) int {
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return i
}

// forwardRunes returns the byte offset n characters after i, or len(s).
func forwardRunes(s string, i, n int) int {
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

package search

import "strings"

// QuoteTerm prepares user input for an FTS5 match expression. Input
// containing a space becomes a phrase: embedded double quotes are doubled
// and the whole input is quoted. Anything else is returned unchanged and
// keeps FTS5 term semantics.
func QuoteTerm(text string) string {
	if !strings.Contains(text, " ") {
		return text
	}
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

// BuildMatchQuery returns the FTS5 match expression for text in scope.
func BuildMatchQuery(text string, scope Scope) string {
	term := QuoteTerm(text)
	switch scope {
	case ScopeFilename:
		return "filename:" + term
	case ScopeAll:
		return "content:" + term + " OR filename:" + term
	default:
		return "content:" + term
	}
}

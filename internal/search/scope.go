package search

import "strings"

// Scope selects which fields a query is matched against.
type Scope string

const (
	ScopeContent  Scope = "content"
	ScopeFilename Scope = "filename"
	ScopeAll      Scope = "all"
)

// ParseScope maps a user-supplied scope name to a Scope. "both" is accepted
// as an alias of "all". Empty and unknown names select ScopeContent.
func ParseScope(s string) Scope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "filename":
		return ScopeFilename
	case "all", "both":
		return ScopeAll
	default:
		return ScopeContent
	}
}

// String returns the scope name.
func (s Scope) String() string {
	return string(s)
}

package repl

import (
	"errors"
	"fmt"
	"strings"

	"textsearch/internal/search"
)

// Action is what a parsed input line asks the client to do.
type Action int

const (
	// ActionNone is a blank line.
	ActionNone Action = iota
	// ActionSearch runs Query in Scope.
	ActionSearch
	// ActionHelp prints the command list.
	ActionHelp
	// ActionQuit ends the session.
	ActionQuit
)

// ErrMissingQuery is returned for a search command with no query text.
var ErrMissingQuery = errors.New("please provide a search query. Example: search Epstein")

// UnknownCommandError is returned for an unrecognised command word.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s. Use 'search' (content only, default), 'all' (content and filename), 'content', or 'filename'", e.Name)
}

// Command is one parsed input line.
type Command struct {
	Action Action
	Scope  search.Scope
	Query  string
}

var scopes = map[string]search.Scope{
	"search":   search.ScopeContent,
	"content":  search.ScopeContent,
	"filename": search.ScopeFilename,
	"all":      search.ScopeAll,
}

// ParseCommand parses "<command> <query>". The command word is
// case-insensitive; the query is everything after the first space, trimmed.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Action: ActionNone}, nil
	}

	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return Command{Action: ActionQuit}, nil
	case "help", "?":
		return Command{Action: ActionHelp}, nil
	}

	name, query, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	query = strings.TrimSpace(query)

	scope, ok := scopes[name]
	if !ok {
		if query == "" {
			return Command{}, ErrMissingQuery
		}
		return Command{}, &UnknownCommandError{Name: name}
	}
	if query == "" {
		return Command{}, ErrMissingQuery
	}

	return Command{
		Action: ActionSearch,
		Scope:  scope,
		Query:  query,
	}, nil
}

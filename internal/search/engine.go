package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"textsearch/internal/contextutil"
	"textsearch/internal/corpus"
	"textsearch/internal/metrics"
	"textsearch/internal/storage"
)

const (
	// DefaultLimit caps the number of candidates a query returns.
	DefaultLimit = 10000
	// MatchOnly is an Options.Window that keeps no context around a match.
	MatchOnly = -1
)

var (
	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("query is required")
	// ErrInvalidQuery is returned when the full-text engine rejects the
	// match expression built from a query.
	ErrInvalidQuery = errors.New("invalid search query")
)

// Options controls snippet and preview sizes of a search.
type Options struct {
	// Limit caps the number of results. Defaults to the engine limit.
	Limit int
	// Window is the number of characters kept on each side of the first
	// match. Zero selects DefaultWindow; MatchOnly keeps just the match.
	Window int
	// PreviewLength is the length of Result.Preview. Defaults to DefaultPreviewLength.
	PreviewLength int
}

// Result is one ranked search hit.
type Result struct {
	FilePath string
	FileName string
	// Rank is the engine's ordering key; lower is better. It is not a score.
	Rank float64
	// Snippet is the plain text around the first match, or the leading
	// text of the document when MatchFound is false.
	Snippet string
	// Highlighted is Snippet as HTML with every match wrapped in a highlight span.
	Highlighted string
	MatchFound  bool
	// Preview is the leading text of the document.
	Preview string
	// FromSample is set when the live file could not be read and the
	// indexed sample was used instead.
	FromSample bool
}

// Engine runs scoped full-text queries and builds snippets from live files.
type Engine struct {
	docs    storage.DocumentStore
	metrics *metrics.Metrics
	limit   int
}

// NewEngine creates a query engine. A non-positive limit selects DefaultLimit.
// m may be nil.
func NewEngine(docs storage.DocumentStore, m *metrics.Metrics, limit int) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Engine{
		docs:    docs,
		metrics: m,
		limit:   limit,
	}
}

// Query returns the candidates matching text in scope, best first. Only the
// indexed samples are consulted.
func (e *Engine) Query(ctx context.Context, text string, scope Scope, limit int) ([]storage.Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = e.limit
	}

	expr := BuildMatchQuery(text, scope)
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "running match query", "expr", expr, "limit", limit)

	matches, err := e.docs.Match(ctx, expr, limit)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidMatch) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidQuery, text)
		}
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	return matches, nil
}

// Search runs Query and builds a Result per candidate from the document's
// live file. A file that can no longer be read falls back to its indexed
// sample; it never fails the search.
func (e *Engine) Search(ctx context.Context, text string, scope Scope, opts Options) ([]Result, error) {
	started := time.Now()

	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}

	matches, err := e.Query(ctx, text, scope, opts.Limit)
	if err != nil {
		e.metrics.RecordSearch(scope.String(), 0, err, time.Since(started))
		return nil, err
	}

	logger := contextutil.LoggerFromContext(ctx)
	pattern := literalPattern(text)
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		full, err := corpus.LoadFull(m.Filepath)
		fromSample := false
		if err != nil {
			logger.WarnContext(ctx, "falling back to indexed sample", "path", m.Filepath, "error", err)
			e.metrics.RecordSampleFallback()
			full = m.Content
			fromSample = true
		}

		snippet, found := extractSnippet(full, pattern, opts.Window)
		results = append(results, Result{
			FilePath:    m.Filepath,
			FileName:    m.Filename,
			Rank:        m.Rank,
			Snippet:     snippet,
			Highlighted: htmlHighlight(snippet, pattern),
			MatchFound:  found,
			Preview:     Preview(full, opts.PreviewLength),
			FromSample:  fromSample,
		})
	}

	e.metrics.RecordSearch(scope.String(), len(results), nil, time.Since(started))
	logger.InfoContext(ctx, "search completed", "query", text, "scope", scope, "results", len(results), "duration", time.Since(started))
	return results, nil
}

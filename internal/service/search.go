package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks -mock_names=SearchService=MockSearchService textsearch/internal/service SearchService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks textsearch/internal/service Searcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"textsearch/internal/contextutil"
	"textsearch/internal/corpus"
	"textsearch/internal/indexer"
	"textsearch/internal/search"
	"textsearch/internal/storage"
)

// MaxSnippetLength bounds the per-side snippet window a caller may request.
const MaxSnippetLength = 100000

// Searcher runs ranked searches.
// This interface is defined from the service layer's perspective (consumer-first).
type Searcher interface {
	Search(ctx context.Context, text string, scope search.Scope, opts search.Options) ([]search.Result, error)
}

// ImageLocator finds and validates companion images.
type ImageLocator interface {
	// Resolve returns the image belonging to a document, if any.
	Resolve(docPath string) (string, bool)
	// URL returns the route serving an image returned by Resolve.
	URL(imagePath string) string
	// Path validates request tokens and returns the image path they address.
	Path(dirToken, filename string) (string, error)
}

// CoverageReporter reports indexing coverage.
type CoverageReporter interface {
	GetIndexingCoverageStats(ctx context.Context, sampleSize int) (*indexer.IndexingCoverageStats, error)
}

// SearchRequest represents a search request in the domain layer.
type SearchRequest struct {
	Query string
	// SearchType is "content", "filename" or "all"; anything else means content.
	// It is echoed unchanged in the response.
	SearchType string
	// SnippetLength is the window on each side of the first match. Nil
	// selects the default; zero keeps only the match.
	SnippetLength *int
	// PreviewLength is the length of each result preview. Zero selects the default.
	PreviewLength int
}

// SearchResponse represents a search response in the domain layer.
type SearchResponse struct {
	Query      string
	SearchType string
	Results    []search.Result
}

// DocumentView is a full document ready for display.
type DocumentView struct {
	Path     string
	Name     string
	Content  string
	Markdown bool
	// ImageURL is the route of the companion image, empty if there is none.
	ImageURL string
}

// SearchService provides search, document and image access.
type SearchService interface {
	// Search runs a scoped full-text search.
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	// ViewDocument loads an indexed document from disk for display.
	ViewDocument(ctx context.Context, rawPath string) (DocumentView, error)
	// ImagePath validates an image request and returns the file to serve.
	ImagePath(ctx context.Context, dirToken, filename string) (string, error)
	// Stats returns indexing coverage statistics.
	Stats(ctx context.Context) (*indexer.IndexingCoverageStats, error)
	// DocumentCount returns the number of indexed documents.
	DocumentCount(ctx context.Context) (int, error)
}

// Options configures a SearchService.
type Options struct {
	SnippetLength int
	PreviewLength int
	SampleSize    int
	// Extension is the document extension ViewDocument accepts.
	Extension string
}

// searchService implements SearchService.
type searchService struct {
	searcher Searcher
	docs     storage.DocumentStore
	images   ImageLocator
	coverage CoverageReporter
	opts     Options
}

// NewSearchService creates a new SearchService.
func NewSearchService(searcher Searcher, docs storage.DocumentStore, images ImageLocator, coverage CoverageReporter, opts Options) SearchService {
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = search.DefaultWindow
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = search.DefaultPreviewLength
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = corpus.DefaultSampleSize
	}
	if opts.Extension == "" {
		opts.Extension = corpus.DefaultExtension
	}
	return &searchService{
		searcher: searcher,
		docs:     docs,
		images:   images,
		coverage: coverage,
		opts:     opts,
	}
}

// Search runs a scoped full-text search.
func (s *searchService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		logger.WarnContext(ctx, "empty query in search request")
		return SearchResponse{}, &ValidationError{
			Field:   "query",
			Message: "cannot be empty",
		}
	}

	window := s.opts.SnippetLength
	if req.SnippetLength != nil {
		n := *req.SnippetLength
		if n < 0 || n > MaxSnippetLength {
			return SearchResponse{}, &ValidationError{
				Field:   "snippet_length",
				Message: fmt.Sprintf("must be between 0 and %d", MaxSnippetLength),
			}
		}
		window = n
		if n == 0 {
			window = search.MatchOnly
		}
	}
	preview := req.PreviewLength
	if preview <= 0 {
		preview = s.opts.PreviewLength
	}

	scope := search.ParseScope(req.SearchType)
	results, err := s.searcher.Search(ctx, req.Query, scope, search.Options{
		Window:        window,
		PreviewLength: preview,
	})
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			return SearchResponse{}, &ValidationError{Field: "query", Message: "cannot be empty"}
		case errors.Is(err, search.ErrInvalidQuery):
			logger.WarnContext(ctx, "query rejected by index", "query", req.Query, "error", err)
			return SearchResponse{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		default:
			logger.ErrorContext(ctx, "search failed", "error", err)
			return SearchResponse{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	searchType := req.SearchType
	if searchType == "" {
		searchType = search.ScopeContent.String()
	}

	return SearchResponse{
		Query:      req.Query,
		SearchType: searchType,
		Results:    results,
	}, nil
}

// ViewDocument loads an indexed document from disk for display. rawPath may
// lack its leading separator and may still be percent-encoded; both forms
// are tried. Only files that were indexed and carry the document extension
// are served.
func (s *searchService) ViewDocument(ctx context.Context, rawPath string) (DocumentView, error) {
	logger := contextutil.LoggerFromContext(ctx)

	full := rawPath
	if !strings.HasPrefix(full, "/") {
		full = "/" + full
	}

	candidates := []string{full}
	if decoded, err := url.PathUnescape(full); err == nil && decoded != full {
		candidates = append(candidates, decoded)
	}

	for _, candidate := range candidates {
		path := filepath.Clean(candidate)
		ok, err := s.servable(ctx, path)
		if err != nil {
			return DocumentView{}, err
		}
		if !ok {
			continue
		}

		content, err := corpus.LoadFull(path)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read document", "path", path, "error", err)
			return DocumentView{}, WrapError(err, "failed to read document")
		}

		view := DocumentView{
			Path:     path,
			Name:     filepath.Base(path),
			Content:  content,
			Markdown: strings.EqualFold(filepath.Ext(path), ".md"),
		}
		if image, found := s.images.Resolve(path); found {
			view.ImageURL = s.images.URL(image)
		}
		return view, nil
	}

	logger.WarnContext(ctx, "document not found", "path", rawPath)
	return DocumentView{}, fmt.Errorf("%w: %s", ErrNotFound, rawPath)
}

// servable reports whether path is an indexed regular file with the
// document extension.
func (s *searchService) servable(ctx context.Context, path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), s.opts.Extension) {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false, nil
	}
	indexed, err := s.docs.HasPath(ctx, path)
	if err != nil {
		return false, WrapError(err, "failed to look up document")
	}
	return indexed, nil
}

// ImagePath validates an image request and returns the file to serve.
func (s *searchService) ImagePath(ctx context.Context, dirToken, filename string) (string, error) {
	path, err := s.images.Path(dirToken, filename)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "rejected image request", "dir", dirToken, "filename", filename, "error", err)
		field := "filename"
		if errors.Is(err, corpus.ErrInvalidDirToken) {
			field = "dir"
		}
		return "", &ValidationError{Field: field, Message: err.Error()}
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: image %s/%s", ErrNotFound, dirToken, filename)
	}
	return path, nil
}

// Stats returns indexing coverage statistics.
func (s *searchService) Stats(ctx context.Context) (*indexer.IndexingCoverageStats, error) {
	stats, err := s.coverage.GetIndexingCoverageStats(ctx, s.opts.SampleSize)
	if err != nil {
		return nil, WrapError(err, "failed to compute index stats")
	}
	return stats, nil
}

// DocumentCount returns the number of indexed documents.
func (s *searchService) DocumentCount(ctx context.Context) (int, error) {
	n, err := s.docs.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return n, nil
}

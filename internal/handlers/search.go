package handlers

import (
	"encoding/json"
	"net/http"

	"textsearch/internal/contextutil"
	"textsearch/internal/service"
)

// SearchHandler handles HTTP requests for search.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchRequest represents the HTTP request payload for search.
type SearchRequest struct {
	Query         string `json:"query"`
	SnippetLength *int   `json:"snippet_length"`
	SearchType    string `json:"search_type"`
}

// SearchResult is one hit in a search response.
type SearchResult struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
	// Snippet is HTML: escaped text with matches wrapped in highlight spans.
	Snippet string `json:"snippet"`
	// Rank is the engine's ordering key; lower sorts first.
	Rank           float64 `json:"rank"`
	ContentPreview string  `json:"content_preview"`
}

// SearchResponse represents the HTTP response payload for search.
type SearchResponse struct {
	Query      string         `json:"query"`
	Results    []SearchResult `json:"results"`
	Count      int            `json:"count"`
	SearchType string         `json:"search_type"`
}

// ServeHTTP handles HTTP requests for search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "No query provided")
		return
	}

	svcResp, err := h.searchService.Search(ctx, service.SearchRequest{
		Query:         req.Query,
		SearchType:    req.SearchType,
		SnippetLength: req.SnippetLength,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search")
		return
	}

	resp := SearchResponse{
		Query:      svcResp.Query,
		Results:    make([]SearchResult, 0, len(svcResp.Results)),
		SearchType: svcResp.SearchType,
	}
	for _, res := range svcResp.Results {
		resp.Results = append(resp.Results, SearchResult{
			FilePath:       res.FilePath,
			FileName:       res.FileName,
			Snippet:        res.Highlighted,
			Rank:           res.Rank,
			ContentPreview: res.Preview,
		})
	}
	resp.Count = len(resp.Results)

	writeJSON(ctx, w, http.StatusOK, resp)
}

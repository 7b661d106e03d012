package handlers

import (
	"net/http"

	"textsearch/internal/service"
)

// StatsHandler reports indexing coverage.
type StatsHandler struct {
	searchService service.SearchService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(searchService service.SearchService) *StatsHandler {
	return &StatsHandler{
		searchService: searchService,
	}
}

// ServeHTTP writes the coverage statistics as JSON.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.searchService.Stats(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to compute stats")
		return
	}

	writeJSON(ctx, w, http.StatusOK, stats)
}

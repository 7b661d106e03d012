package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"textsearch/internal/contextutil"
	"textsearch/internal/service"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	searchService      service.SearchService
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(searchService service.SearchService) *HealthHandler {
	return &HealthHandler{
		searchService:      searchService,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP reports whether the index can be queried.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if count, ok := h.checkIndex(checkCtx, logger); ok {
		checks["index"] = "ok"
		checks["documents"] = strconv.Itoa(count)
	} else {
		checks["index"] = "error"
		issues = append(issues, "index_unavailable")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	writeJSON(ctx, w, httpStatus, response)
}

// checkIndex counts indexed documents; an empty index is still healthy.
func (h *HealthHandler) checkIndex(ctx context.Context, logger *slog.Logger) (int, bool) {
	count, err := h.searchService.DocumentCount(ctx)
	if err != nil {
		logger.WarnContext(ctx, "index health check failed", "error", err)
		return 0, false
	}
	return count, true
}

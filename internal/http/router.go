package http

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"textsearch/internal/handlers"
	"textsearch/internal/metrics"
	"textsearch/internal/service"
)

//go:embed static/index.html
var defaultIndexHTML string

// Deps holds dependencies for the HTTP router.
type Deps struct {
	SearchService service.SearchService
	// Metrics is optional; when nil no /metrics route is mounted.
	Metrics *metrics.Metrics
	// IndexHTML overrides the embedded search page.
	IndexHTML string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(Metrics(deps.Metrics))

	// Add CORS middleware
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.SearchService)
	documentHandler := handlers.NewDocumentHandler(deps.SearchService)
	imageHandler := handlers.NewImageHandler(deps.SearchService)
	statsHandler := handlers.NewStatsHandler(deps.SearchService)
	healthHandler := handlers.NewHealthHandler(deps.SearchService)

	r.Method(http.MethodPost, "/search", searchHandler)
	r.Method(http.MethodGet, "/view_file/*", documentHandler)
	r.Method(http.MethodGet, "/view_image/{dir}/{filename}", imageHandler)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/stats", statsHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	indexHTML := deps.IndexHTML
	if indexHTML == "" {
		indexHTML = defaultIndexHTML
	}

	// Serve HTML page at root
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(indexHTML))
	})

	return r
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"textsearch/internal/contextutil"
	"textsearch/internal/service"
)

// ImageHandler serves companion images from the numbered image directories.
type ImageHandler struct {
	searchService service.SearchService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(searchService service.SearchService) *ImageHandler {
	return &ImageHandler{
		searchService: searchService,
	}
}

// ServeHTTP serves /view_image/{dir}/{filename}. An out-of-range directory
// or a filename that could leave it is a 400; a missing file is a 404.
func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dir := chi.URLParam(r, "dir")
	filename := chi.URLParam(r, "filename")

	path, err := h.searchService.ImagePath(ctx, dir, filename)
	if err != nil {
		status, _ := serviceErrorStatus(err, "Error serving image")
		msg := http.StatusText(status)
		switch status {
		case http.StatusBadRequest:
			msg = "Invalid image request"
		case http.StatusNotFound:
			msg = "File not found"
		}
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "image not served", "dir", dir, "filename", filename, "status", status)
		http.Error(w, msg, status)
		return
	}

	http.ServeFile(w, r, path)
}

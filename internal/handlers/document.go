package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"textsearch/internal/contextutil"
	"textsearch/internal/service"
)

// DocumentHandler serves a full indexed document as an HTML page.
type DocumentHandler struct {
	searchService service.SearchService
	parser        goldmark.Markdown
	template      *template.Template
}

// documentPageData holds template data for document pages.
type documentPageData struct {
	Title    string
	Path     string
	ImageURL string
	Text     string
	Rendered template.HTML
}

// NewDocumentHandler creates a new handler for viewing documents.
func NewDocumentHandler(searchService service.SearchService) *DocumentHandler {
	tmpl := template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 1000px;
      line-height: 1.6;
      background: #f5f5f5;
      color: #222;
    }
    header {
      margin-bottom: 1.5rem;
      border-bottom: 1px solid #ddd;
      padding-bottom: 1rem;
    }
    h1 {
      margin: 0;
      font-size: 1.6rem;
      word-break: break-all;
    }
    .meta {
      color: #666;
      font-size: 0.9rem;
      word-break: break-all;
    }
    .image-link img {
      max-width: 100%;
      border: 1px solid #ccc;
      margin: 1rem 0;
    }
    article {
      background: #fff;
      border: 1px solid #ddd;
      border-radius: 8px;
      padding: 1.5rem;
    }
    pre {
      white-space: pre-wrap;
      word-wrap: break-word;
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      margin: 0;
    }
    a {
      color: #0b61c4;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.Path}}</p>
    <p><a href="/">&larr; Back to search</a></p>
  </header>
  {{if .ImageURL}}
  <div class="image-link">
    <a href="{{.ImageURL}}" target="_blank">View original image</a><br>
    <img src="{{.ImageURL}}" alt="{{.Title}}">
  </div>
  {{end}}
  <article>{{if .Rendered}}{{.Rendered}}{{else}}<pre>{{.Text}}</pre>{{end}}</article>
</body>
</html>`))

	return &DocumentHandler{
		searchService: searchService,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the requested document. The wildcard is the document's
// path, with or without its leading separator.
func (h *DocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	rawPath := chi.URLParam(r, "*")
	if rawPath == "" {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	doc, err := h.searchService.ViewDocument(ctx, rawPath)
	if err != nil {
		status, msg := serviceErrorStatus(err, "Error reading file")
		if status == http.StatusNotFound {
			msg = "File not found"
		}
		logger.WarnContext(ctx, "document not served", "path", rawPath, "status", status, "error", err)
		http.Error(w, msg, status)
		return
	}

	data := documentPageData{
		Title:    doc.Name,
		Path:     doc.Path,
		ImageURL: doc.ImageURL,
		Text:     doc.Content,
	}
	if doc.Markdown {
		rendered, err := h.renderMarkdown([]byte(doc.Content))
		if err != nil {
			logger.ErrorContext(ctx, "failed to render markdown", "path", doc.Path, "error", err)
			http.Error(w, "failed to render document", http.StatusInternalServerError)
			return
		}
		data.Rendered = template.HTML(rendered)
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, data); err != nil {
		logger.ErrorContext(ctx, "failed to execute document template", "path", doc.Path, "error", err)
		http.Error(w, "failed to render document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *DocumentHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

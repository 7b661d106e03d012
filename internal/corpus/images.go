package corpus

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrInvalidDirToken is returned when an image directory token is not a
	// number within the configured range.
	ErrInvalidDirToken = errors.New("invalid image directory")
	// ErrInvalidImageName is returned when an image filename could escape its directory.
	ErrInvalidImageName = errors.New("invalid image filename")
)

// ImageExtensions lists the companion image extensions in lookup order.
var ImageExtensions = []string{
	".jpg", ".jpeg", ".JPG", ".JPEG",
	".png", ".PNG",
	".gif", ".GIF",
	".tif", ".tiff", ".TIFF", ".TIF",
}

// ImageResolver locates the companion image of a document. Images live in
// numbered directories (001, 002, ...) under Root and share the document's
// base filename.
type ImageResolver struct {
	Root   string
	MinDir int
	MaxDir int
}

// NewImageResolver creates a resolver over root for directories min..max.
func NewImageResolver(root string, minDir, maxDir int) *ImageResolver {
	return &ImageResolver{
		Root:   root,
		MinDir: minDir,
		MaxDir: maxDir,
	}
}

// Resolve returns the image sharing docPath's base name. The numbered
// directory matching the document's own parent is tried first, then every
// directory in range.
func (r *ImageResolver) Resolve(docPath string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	if base == "" {
		return "", false
	}

	if dir, err := r.ParseDirToken(filepath.Base(filepath.Dir(docPath))); err == nil {
		if p, ok := r.lookup(dir, base); ok {
			return p, true
		}
	}

	for i := r.MinDir; i <= r.MaxDir; i++ {
		dir := FormatDirToken(i)
		info, err := os.Stat(filepath.Join(r.Root, dir))
		if err != nil || !info.IsDir() {
			continue
		}
		if p, ok := r.lookup(dir, base); ok {
			return p, true
		}
	}

	return "", false
}

func (r *ImageResolver) lookup(dir, base string) (string, bool) {
	for _, ext := range ImageExtensions {
		p := filepath.Join(r.Root, dir, base+ext)
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// URL returns the /view_image route for an image found by Resolve.
func (r *ImageResolver) URL(imagePath string) string {
	dir := filepath.Base(filepath.Dir(imagePath))
	return "/view_image/" + dir + "/" + url.PathEscape(filepath.Base(imagePath))
}

// Path validates a directory token and filename from a request and returns
// the image path they address. The returned path is not checked for existence.
func (r *ImageResolver) Path(dirToken, filename string) (string, error) {
	dir, err := r.ParseDirToken(dirToken)
	if err != nil {
		return "", err
	}
	if !ValidImageFilename(filename) {
		return "", fmt.Errorf("%w: %q", ErrInvalidImageName, filename)
	}
	return filepath.Join(r.Root, dir, filename), nil
}

// ParseDirToken accepts an all-digit token whose value is within range and
// returns it normalised to three digits ("1" and "001" both yield "001").
func (r *ImageResolver) ParseDirToken(token string) (string, error) {
	if token == "" || len(token) > 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirToken, token)
	}
	for _, c := range token {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidDirToken, token)
		}
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < r.MinDir || n > r.MaxDir {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirToken, token)
	}
	return FormatDirToken(n), nil
}

// FormatDirToken renders a directory number the way the image tree names it.
func FormatDirToken(n int) string {
	return fmt.Sprintf("%03d", n)
}

// ValidImageFilename rejects names that are empty, absolute, contain a path
// separator, or contain a parent reference.
func ValidImageFilename(name string) bool {
	if name == "" || name == "." {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}

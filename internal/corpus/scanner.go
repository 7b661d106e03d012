package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension is the canonical document extension.
const DefaultExtension = ".txt"

// ScannedFile represents a document found during a corpus scan.
type ScannedFile struct {
	Path     string // Absolute, cleaned path; the only link back to the live file
	Filename string // Base name
}

// Scanner enumerates documents under a root directory.
type Scanner struct {
	extension string
	logger    *slog.Logger
}

// NewScanner creates a scanner matching files with the given extension.
// The comparison ignores case. An empty extension selects DefaultExtension.
func NewScanner(extension string) *Scanner {
	if extension == "" {
		extension = DefaultExtension
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return &Scanner{
		extension: extension,
		logger:    slog.Default(),
	}
}

// Extension returns the extension the scanner matches.
func (s *Scanner) Extension() string {
	return s.extension
}

// Matches reports whether path has the scanner's extension.
func (s *Scanner) Matches(path string) bool {
	return strings.EqualFold(filepath.Ext(path), s.extension)
}

// Scan walks root recursively and returns every matching file.
// The order is whatever the directory walk yields and must not be relied on.
// Hidden directories and files are skipped. Unreadable subdirectories are logged and
// skipped; only a missing or unreadable root is an error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to access root %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", absRoot)
	}

	var scanned []ScannedFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			s.logger.WarnContext(ctx, "skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") || !s.Matches(path) {
			return nil
		}

		scanned = append(scanned, ScannedFile{
			Path:     path,
			Filename: d.Name(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", absRoot, err)
	}

	return scanned, nil
}

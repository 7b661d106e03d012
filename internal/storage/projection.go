package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidMatch is returned when FTS5 rejects a match expression.
	ErrInvalidMatch = errors.New("invalid match expression")
)

const (
	insertProjectionSQL = `INSERT INTO documents_fts(rowid, content, filename, filepath) VALUES (?, ?, ?, ?)`

	// External-content FTS5 tables are told about removals through the special
	// 'delete' command, which needs the values that were originally indexed.
	deleteProjectionSQL = `INSERT INTO documents_fts(documents_fts, rowid, content, filename, filepath) VALUES ('delete', ?, ?, ?, ?)`

	clearProjectionSQL = `INSERT INTO documents_fts(documents_fts) VALUES ('delete-all')`
)

// execer is the subset of *sql.Tx used by the projection helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// mirrorInsert adds doc to the projection under doc.ID.
func mirrorInsert(ctx context.Context, tx execer, doc *Document) error {
	if _, err := tx.ExecContext(ctx, insertProjectionSQL, doc.ID, doc.Content, doc.Filename, doc.Filepath); err != nil {
		return fmt.Errorf("failed to insert projection entry %d: %w", doc.ID, err)
	}
	return nil
}

// mirrorDelete removes the projection entry for doc. doc must hold the values
// the entry was indexed with.
func mirrorDelete(ctx context.Context, tx execer, doc *Document) error {
	if _, err := tx.ExecContext(ctx, deleteProjectionSQL, doc.ID, doc.Content, doc.Filename, doc.Filepath); err != nil {
		return fmt.Errorf("failed to delete projection entry %d: %w", doc.ID, err)
	}
	return nil
}

// loadDocument reads the primary row for id inside tx.
func loadDocument(ctx context.Context, tx execer, id int64) (*Document, error) {
	doc := Document{ID: id}
	err := tx.QueryRowContext(ctx,
		"SELECT filename, filepath, COALESCE(content, '') FROM documents WHERE id = ?",
		id,
	).Scan(&doc.Filename, &doc.Filepath, &doc.Content)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return &doc, nil
}

// isMatchSyntaxError reports whether err came from FTS5 rejecting the
// match expression rather than from the database itself.
func isMatchSyntaxError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "fts5:") ||
		strings.Contains(msg, "syntax error") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "unterminated string") ||
		strings.Contains(msg, "unknown special query")
}

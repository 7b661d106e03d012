package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks textsearch/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentStore defines the document storage operations.
// Every mutation updates the documents table and its full-text projection in
// one transaction.
type DocumentStore interface {
	// BeginBatch opens a write transaction for bulk inserts.
	BeginBatch(ctx context.Context) (*Batch, error)
	// Insert adds a single document and returns its id.
	Insert(ctx context.Context, doc *Document) (int64, error)
	// Update replaces the stored fields of doc.ID.
	Update(ctx context.Context, doc *Document) error
	// Delete removes a document. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error
	// Reindex rebuilds the projection entry of id from its primary row.
	Reindex(ctx context.Context, id int64) error
	// Reset removes every document and clears the projection.
	Reset(ctx context.Context) error
	// Get returns a document by id. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id int64) (*Document, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
	// HasPath reports whether any document was indexed from path.
	HasPath(ctx context.Context, path string) (bool, error)
	// Match runs an FTS5 match expression and returns rows best-first.
	Match(ctx context.Context, expr string, limit int) ([]Match, error)
	// SampleStats summarizes stored samples against the given sample size.
	SampleStats(ctx context.Context, sampleSize int) (SampleStats, error)
}

// DocumentRepo implements DocumentStore on SQLite.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// DB returns the underlying database handle.
func (r *DocumentRepo) DB() *sql.DB {
	return r.db
}

// BeginBatch opens a write transaction for bulk inserts.
func (r *DocumentRepo) BeginBatch(ctx context.Context) (*Batch, error) {
	return newBatch(ctx, r.db)
}

// Insert adds a single document and returns its id.
func (r *DocumentRepo) Insert(ctx context.Context, doc *Document) (int64, error) {
	b, err := r.BeginBatch(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = b.Rollback()
	}()

	id, err := b.Insert(ctx, doc)
	if err != nil {
		return 0, err
	}
	if err := b.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Update replaces the stored fields of doc.ID.
// The old projection entry is deleted and a new one inserted; the entry is
// never modified in place.
func (r *DocumentRepo) Update(ctx context.Context, doc *Document) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := loadDocument(ctx, tx, doc.ID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE documents SET filename = ?, filepath = ?, content = ? WHERE id = ?",
			doc.Filename, doc.Filepath, doc.Content, doc.ID,
		); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		if err := mirrorDelete(ctx, tx, old); err != nil {
			return err
		}
		return mirrorInsert(ctx, tx, doc)
	})
}

// Delete removes a document and its projection entry.
func (r *DocumentRepo) Delete(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := loadDocument(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mirrorDelete(ctx, tx, old); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		return nil
	})
}

// Reindex rebuilds the projection entry of id from its primary row.
// It assumes the current entry was indexed from the current row.
func (r *DocumentRepo) Reindex(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		doc, err := loadDocument(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mirrorDelete(ctx, tx, doc); err != nil {
			return err
		}
		return mirrorInsert(ctx, tx, doc)
	})
}

// Reset removes every document and clears the projection.
// Used for an explicit rebuild; ids are not reused afterwards.
func (r *DocumentRepo) Reset(ctx context.Context) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, clearProjectionSQL); err != nil {
			return fmt.Errorf("failed to clear projection: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
		return nil
	})
}

// Get returns a document by id. Returns ErrNotFound if it does not exist.
func (r *DocumentRepo) Get(ctx context.Context, id int64) (*Document, error) {
	return loadDocument(ctx, r.db, id)
}

// Count returns the number of stored documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// HasPath reports whether any document was indexed from path.
func (r *DocumentRepo) HasPath(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM documents WHERE filepath = ?)", path,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up path: %w", err)
	}
	return exists, nil
}

// Match runs an FTS5 match expression and returns at most limit rows ordered
// by rank, best first. Ties keep whatever order SQLite produces.
// Expressions FTS5 cannot parse are reported as ErrInvalidMatch.
func (r *DocumentRepo) Match(ctx context.Context, expr string, limit int) ([]Match, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.id, d.filename, d.filepath, COALESCE(d.content, ''), documents_fts.rank
		 FROM documents_fts
		 JOIN documents AS d ON documents_fts.rowid = d.id
		 WHERE documents_fts MATCH ?
		 ORDER BY documents_fts.rank
		 LIMIT ?`,
		expr, limit,
	)
	if err != nil {
		if isMatchSyntaxError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMatch, err)
		}
		return nil, fmt.Errorf("failed to run match query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Filename, &m.Filepath, &m.Content, &m.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		// Some FTS5 parse errors only surface on the first step.
		if isMatchSyntaxError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMatch, err)
		}
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

// SampleStats summarizes stored samples. A sample counts as at the cap when
// it is within one UTF-8 sequence of sampleSize bytes, since the reader drops
// a rune split by the size limit.
func (r *DocumentRepo) SampleStats(ctx context.Context, sampleSize int) (SampleStats, error) {
	threshold := sampleSize - 3
	if threshold < 1 {
		threshold = 1
	}

	var stats SampleStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(LENGTH(CAST(content AS BLOB))), 0),
		        COALESCE(SUM(CASE WHEN LENGTH(CAST(content AS BLOB)) >= ? THEN 1 ELSE 0 END), 0)
		 FROM documents`,
		threshold,
	).Scan(&stats.Documents, &stats.SampleBytes, &stats.AtCap)
	if err != nil {
		return SampleStats{}, fmt.Errorf("failed to query sample stats: %w", err)
	}
	return stats, nil
}

// withTx runs fn in a transaction, committing if it returns nil.
func (r *DocumentRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

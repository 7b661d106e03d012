package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Batch is an open write transaction. Inserted documents and their
// projection entries become visible to queries together on Commit.
type Batch struct {
	tx        *sql.Tx
	insertDoc *sql.Stmt
	insertFTS *sql.Stmt
	inserted  int
	done      bool
}

func newBatch(ctx context.Context, db *sql.DB) (*Batch, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}

	insertDoc, err := tx.PrepareContext(ctx,
		"INSERT INTO documents (filename, filepath, content) VALUES (?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to prepare document insert: %w", err)
	}

	insertFTS, err := tx.PrepareContext(ctx, insertProjectionSQL)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to prepare projection insert: %w", err)
	}

	return &Batch{tx: tx, insertDoc: insertDoc, insertFTS: insertFTS}, nil
}

// Insert adds doc to the batch and sets doc.ID.
// The primary row and its projection entry are written under a savepoint, so
// a failure leaves neither behind and the batch stays usable.
func (b *Batch) Insert(ctx context.Context, doc *Document) (int64, error) {
	if b.done {
		return 0, fmt.Errorf("batch already finished")
	}

	if _, err := b.tx.ExecContext(ctx, "SAVEPOINT doc_insert"); err != nil {
		return 0, fmt.Errorf("failed to open savepoint: %w", err)
	}

	id, err := b.insert(ctx, doc)
	if err != nil {
		_, _ = b.tx.ExecContext(ctx, "ROLLBACK TO doc_insert")
		_, _ = b.tx.ExecContext(ctx, "RELEASE doc_insert")
		return 0, err
	}

	if _, err := b.tx.ExecContext(ctx, "RELEASE doc_insert"); err != nil {
		return 0, fmt.Errorf("failed to release savepoint: %w", err)
	}

	doc.ID = id
	b.inserted++
	return id, nil
}

func (b *Batch) insert(ctx context.Context, doc *Document) (int64, error) {
	res, err := b.insertDoc.ExecContext(ctx, doc.Filename, doc.Filepath, doc.Content)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document %s: %w", doc.Filepath, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read document id: %w", err)
	}
	if _, err := b.insertFTS.ExecContext(ctx, id, doc.Content, doc.Filename, doc.Filepath); err != nil {
		return 0, fmt.Errorf("failed to insert projection entry %d: %w", id, err)
	}
	return id, nil
}

// Len returns the number of documents inserted so far.
func (b *Batch) Len() int {
	return b.inserted
}

// Commit makes every inserted document durable and queryable.
func (b *Batch) Commit() error {
	if b.done {
		return fmt.Errorf("batch already finished")
	}
	b.done = true
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch. It is a no-op after Commit.
func (b *Batch) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback()
}

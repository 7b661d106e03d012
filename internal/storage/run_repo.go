package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_run_store.go -package=mocks textsearch/internal/storage RunStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// runTimeLayout is fixed-width so timestamps sort lexically.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// RunStore defines the index-run ledger operations.
type RunStore interface {
	// Start records the beginning of a run over root and returns it.
	Start(ctx context.Context, root string) (*IndexRun, error)
	// Finish records the outcome of a run.
	Finish(ctx context.Context, id string, indexed, failed int) error
	// Latest returns the most recently started run. Returns ErrNotFound if none.
	Latest(ctx context.Context) (*IndexRun, error)
}

// RunRepo implements RunStore on SQLite.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Start records the beginning of a run over root and returns it.
func (r *RunRepo) Start(ctx context.Context, root string) (*IndexRun, error) {
	run := &IndexRun{
		ID:        uuid.New().String(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO index_runs (id, root, started_at) VALUES (?, ?, ?)",
		run.ID, run.Root, run.StartedAt.Format(runTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert index run: %w", err)
	}
	return run, nil
}

// Finish records the outcome of a run.
func (r *RunRepo) Finish(ctx context.Context, id string, indexed, failed int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE index_runs SET finished_at = ?, indexed = ?, failed = ? WHERE id = ?",
		time.Now().UTC().Format(runTimeLayout), indexed, failed, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish index run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Latest returns the most recently started run. Returns ErrNotFound if none.
func (r *RunRepo) Latest(ctx context.Context) (*IndexRun, error) {
	var (
		run        IndexRun
		startedAt  string
		finishedAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, root, started_at, finished_at, indexed, failed
		 FROM index_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	).Scan(&run.ID, &run.Root, &startedAt, &finishedAt, &run.Indexed, &run.Failed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query index run: %w", err)
	}

	run.StartedAt, err = time.Parse(runTimeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at timestamp: %w", err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(runTimeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at timestamp: %w", err)
		}
		run.FinishedAt = &t
	}

	return &run, nil
}

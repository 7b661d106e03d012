package storage

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// dsnPragmas are applied by the driver to every pooled connection.
// busy_timeout and foreign_keys are per-connection settings in SQLite, so a
// single Exec after Open would only configure one of them.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"

// New opens a SQLite database connection at the given path.
// The database runs in WAL mode so readers do not block while an indexing
// batch is being written.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the document table, its FTS5 projection and the run ledger.
// It is idempotent and can be run multiple times safely.
//
// documents_fts is an external-content table: it stores only the token
// index and reads column values back from documents by rowid. Nothing keeps
// the two in sync automatically; every mutation goes through the repository,
// which mirrors it into the projection inside the same transaction.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL,
			filepath TEXT NOT NULL,
			content TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_filepath ON documents(filepath);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			content,
			filename,
			filepath,
			content='documents',
			content_rowid='id'
		);`,
		`CREATE TABLE IF NOT EXISTS index_runs (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			indexed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

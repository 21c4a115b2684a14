// Package store provides the SQLite-backed metadata store with an optional
// FTS5 shadow index over path and name for lightweight text lookups.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path              TEXT PRIMARY KEY,
	id                TEXT NOT NULL UNIQUE,
	name              TEXT NOT NULL,
	size              INTEGER NOT NULL DEFAULT 0,
	modified          INTEGER NOT NULL DEFAULT 0,
	created           INTEGER NOT NULL DEFAULT 0,
	file_type         TEXT NOT NULL DEFAULT '',
	mime_type         TEXT NOT NULL DEFAULT '',
	is_directory      INTEGER NOT NULL DEFAULT 0,
	permissions       TEXT NOT NULL DEFAULT '',
	checksum          TEXT NOT NULL DEFAULT '',
	indexed_at        INTEGER NOT NULL DEFAULT 0,
	content_extracted INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_files_modified ON files(modified);
CREATE INDEX IF NOT EXISTS idx_files_size ON files(size);
CREATE INDEX IF NOT EXISTS idx_files_type ON files(file_type);
`

// DB wraps a sql.DB with metadata-store operations.
type DB struct {
	conn *sql.DB
	path string // database file, used for on-disk size reporting

	// extraSize reports the on-disk size of companion state (the full-text
	// index directory) so Status can include it. Optional.
	extraSize func() int64
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initShadow(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply shadow schema: %w", err)
	}
	return &DB{conn: conn, path: dsn}, nil
}

// SetExtraSizeFunc registers a callback whose result is added to the
// on-disk size reported by Status.
func (db *DB) SetExtraSizeFunc(fn func() int64) {
	db.extraSize = fn
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

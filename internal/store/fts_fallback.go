//go:build !sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
)

func initShadow(_ *sql.DB) error {
	// FTS5 not compiled in; text search falls back to LIKE over the files table.
	return nil
}

func shadowUpsert(_ *sql.Tx, _, _ string) error {
	// Path and name live in the files table; nothing extra to maintain.
	return nil
}

func shadowDelete(_ *sql.Tx, _ string) {}

// TextSearch performs a LIKE-based lookup (fallback when FTS5 is not
// compiled in). Shorter names sort first as a crude best-match order.
func (db *DB) TextSearch(query string, limit int) ([]FileRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(selectCols+`
		FROM files
		WHERE name LIKE ? OR path LIKE ?
		ORDER BY length(name)
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: text search: %w", err)
	}
	return scanRecords(rows)
}

//go:build sqlite_fts5

package store

import (
	"database/sql"
	"fmt"
	"strings"
)

func initShadow(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS files_shadow USING fts5(
			path,
			name,
			tokenize = 'unicode61 remove_diacritics 2 tokenchars ''-_.'''
		);
	`)
	return err
}

func shadowUpsert(tx *sql.Tx, path, name string) error {
	_, _ = tx.Exec(`DELETE FROM files_shadow WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO files_shadow (path, name) VALUES (?, ?)`, path, name)
	if err != nil {
		return fmt.Errorf("store: upsert shadow: %w", err)
	}
	return nil
}

func shadowDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM files_shadow WHERE path = ?`, path)
}

// TextSearch performs an FTS5 lookup over path and name tokens, best match
// first by bm25 rank.
func (db *DB) TextSearch(query string, limit int) ([]FileRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	match := shadowMatchExpr(query)
	if match == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(selectCols+`
		FROM files f
		JOIN files_shadow s ON f.path = s.path
		WHERE files_shadow MATCH ?
		ORDER BY bm25(files_shadow)
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("store: text search: %w", err)
	}
	return scanRecords(rows)
}

// shadowMatchExpr turns free text into a safe FTS5 prefix query:
// each token is quoted and suffixed with * so partial names match.
func shadowMatchExpr(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}

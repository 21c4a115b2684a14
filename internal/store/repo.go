package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
)

// Upsert inserts or replaces a record by path, keeping the shadow index
// consistent within the same transaction. The record's ID is used only on
// first insert; on replacement the stored ID is preserved. The effective
// ID is returned so callers can key derived state (full-text documents) by it.
func (db *DB) Upsert(rec FileRecord) (string, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (path, id, name, size, modified, created, file_type,
			mime_type, is_directory, permissions, checksum, indexed_at, content_extracted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name              = excluded.name,
			size              = excluded.size,
			modified          = excluded.modified,
			created           = excluded.created,
			file_type         = excluded.file_type,
			mime_type         = excluded.mime_type,
			is_directory      = excluded.is_directory,
			permissions       = excluded.permissions,
			checksum          = excluded.checksum,
			indexed_at        = excluded.indexed_at,
			content_extracted = excluded.content_extracted
	`, rec.Path, rec.ID, rec.Name, rec.Size, rec.Modified.Unix(), rec.Created.Unix(),
		rec.FileType, rec.MimeType, rec.IsDirectory, rec.Permissions, rec.Checksum,
		rec.IndexedAt.Unix(), rec.ContentExtracted)
	if err != nil {
		return "", fmt.Errorf("store: upsert %s: %w", rec.Path, errors.Join(apperr.ErrStorage, err))
	}

	var id string
	if err := tx.QueryRow(`SELECT id FROM files WHERE path = ?`, rec.Path).Scan(&id); err != nil {
		return "", fmt.Errorf("store: read back id for %s: %w", rec.Path, err)
	}

	if err := shadowUpsert(tx, rec.Path, rec.Name); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit upsert: %w", err)
	}
	return id, nil
}

// GetByID returns the record with the given id, or apperr.ErrNotFound.
func (db *DB) GetByID(id string) (*FileRecord, error) {
	rec, err := db.scanOne(`WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("store: id %s: %w", id, apperr.ErrNotFound)
	}
	return rec, nil
}

// GetByPath returns the record at path, or (nil, nil) when absent.
// Absence is a normal outcome, not an error.
func (db *DB) GetByPath(path string) (*FileRecord, error) {
	return db.scanOne(`WHERE path = ?`, path)
}

// Delete removes the record and its shadow entry. Deleting an absent path
// is a no-op.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	shadowDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: delete %s: %w", path, errors.Join(apperr.ErrStorage, err))
	}
	return tx.Commit()
}

// PendingContent returns regular files whose content has not yet been
// extracted, oldest first.
func (db *DB) PendingContent(limit int) ([]FileRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := db.conn.Query(selectCols+`
		FROM files
		WHERE content_extracted = 0 AND is_directory = 0
		ORDER BY indexed_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: pending content: %w", err)
	}
	return scanRecords(rows)
}

// MarkContentExtracted flips the content_extracted flag for a record.
func (db *DB) MarkContentExtracted(id string) error {
	res, err := db.conn.Exec(`UPDATE files SET content_extracted = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: mark extracted %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: mark extracted %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// AllFingerprints returns every indexed path mapped to its checksum,
// used by the watcher's reconciliation pass.
func (db *DB) AllFingerprints() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("store: all fingerprints: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Status aggregates counts and on-disk size. Indexing speed is filled in
// by the caller from the most recent run; the store reports zero.
func (db *DB) Status() (*IndexStatus, error) {
	var st IndexStatus
	var lastUpdate sql.NullInt64
	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(content_extracted), 0),
		       COALESCE(SUM(CASE WHEN checksum = '' THEN 1 ELSE 0 END), 0),
		       MAX(indexed_at)
		FROM files
	`).Scan(&st.TotalFiles, &st.IndexedFiles, &st.FailedFiles, &lastUpdate)
	if err != nil {
		return nil, fmt.Errorf("store: status: %w", errors.Join(apperr.ErrStorage, err))
	}
	st.PendingFiles = st.TotalFiles - st.IndexedFiles
	if lastUpdate.Valid {
		st.LastUpdate = time.Unix(lastUpdate.Int64, 0)
	}

	var size int64
	if info, err := os.Stat(db.path); err == nil {
		size = info.Size()
	}
	if db.extraSize != nil {
		size += db.extraSize()
	}
	st.IndexSizeMB = float64(size) / (1024 * 1024)
	return &st, nil
}

const selectCols = `
	SELECT path, id, name, size, modified, created, file_type, mime_type,
	       is_directory, permissions, checksum, indexed_at, content_extracted`

func (db *DB) scanOne(where string, arg any) (*FileRecord, error) {
	row := db.conn.QueryRow(selectCols+` FROM files `+where, arg)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", errors.Join(apperr.ErrStorage, err))
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*FileRecord, error) {
	var rec FileRecord
	var modified, created, indexedAt int64
	if err := row.Scan(&rec.Path, &rec.ID, &rec.Name, &rec.Size, &modified, &created,
		&rec.FileType, &rec.MimeType, &rec.IsDirectory, &rec.Permissions,
		&rec.Checksum, &indexedAt, &rec.ContentExtracted); err != nil {
		return nil, err
	}
	rec.Modified = time.Unix(modified, 0)
	rec.Created = time.Unix(created, 0)
	rec.IndexedAt = time.Unix(indexedAt, 0)
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]FileRecord, error) {
	defer rows.Close()
	var out []FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

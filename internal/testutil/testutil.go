// Package testutil provides shared test helpers for setting up stores and
// file trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/fulltext"
	"github.com/wlfogle/OmnioSearch/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "files.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFulltext creates a temporary full-text index that is automatically
// cleaned up.
func TestFulltext(t *testing.T) *fulltext.Index {
	t.Helper()
	ft, err := fulltext.Open(filepath.Join(t.TempDir(), "fulltext"))
	if err != nil {
		t.Fatalf("fulltext.Open: %v", err)
	}
	t.Cleanup(func() { ft.Close() })
	return ft
}

// WriteFile creates a file with the given content under dir, creating
// parent directories as needed, and returns its absolute path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// Record builds a minimal valid FileRecord for a path.
func Record(id, path string) store.FileRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return store.FileRecord{
		ID:          id,
		Path:        path,
		Name:        filepath.Base(path),
		Size:        64,
		Modified:    now,
		Created:     now,
		FileType:    "txt",
		MimeType:    "text/plain",
		Permissions: "0644",
		Checksum:    "deadbeefdeadbeef",
		IndexedAt:   now,
	}
}

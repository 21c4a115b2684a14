//go:build !sqlite_fts5

package store

import "testing"

func TestTextSearchLike(t *testing.T) {
	db := testStore(t)
	_, _ = db.Upsert(record("id-1", "/docs/quarterly-report.txt"))
	_, _ = db.Upsert(record("id-2", "/docs/report.txt"))
	_, _ = db.Upsert(record("id-3", "/music/song.mp3"))

	results, err := db.TextSearch("report", 0)
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	// Shorter names sort first.
	if results[0].Path != "/docs/report.txt" {
		t.Errorf("first = %s, want /docs/report.txt", results[0].Path)
	}
}

func TestTextSearchLimit(t *testing.T) {
	db := testStore(t)
	_, _ = db.Upsert(record("id-1", "/a/note1.txt"))
	_, _ = db.Upsert(record("id-2", "/a/note2.txt"))
	_, _ = db.Upsert(record("id-3", "/a/note3.txt"))

	results, err := db.TextSearch("note", 2)
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestTextSearchNoMatch(t *testing.T) {
	db := testStore(t)
	_, _ = db.Upsert(record("id-1", "/a/note.txt"))

	results, err := db.TextSearch("zzzzz", 0)
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

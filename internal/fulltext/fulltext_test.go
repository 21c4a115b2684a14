package fulltext

import (
	"path/filepath"
	"testing"
	"time"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ft, err := Open(filepath.Join(t.TempDir(), "fulltext"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ft.Close() })
	return ft
}

func doc(id, name, content string) Document {
	return Document{
		ID:       id,
		Path:     "/files/" + name,
		Name:     name,
		Content:  content,
		FileType: "txt",
		Size:     int64(len(content)),
		Modified: time.Now(),
	}
}

func mustAdd(t *testing.T, ft *Index, d Document) {
	t.Helper()
	if err := ft.AddOrReplace(d); err != nil {
		t.Fatalf("AddOrReplace(%s): %v", d.ID, err)
	}
}

func TestWritesInvisibleUntilCommit(t *testing.T) {
	ft := testIndex(t)
	mustAdd(t, ft, doc("a", "report.txt", ""))

	hits, err := ft.Search("report", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("uncommitted write visible: %+v", hits)
	}

	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	hits, err = ft.Search("report", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("hits = %+v, want [a]", hits)
	}
}

func TestPrefixMatchesPartialName(t *testing.T) {
	ft := testIndex(t)
	mustAdd(t, ft, doc("a", "quarterly-report.pdf", ""))
	mustAdd(t, ft, doc("b", "song.mp3", ""))
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	hits, err := ft.Search("quart", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].ID != "a" {
		t.Errorf("hits = %+v, want a first", hits)
	}
}

func TestNameOutranksContent(t *testing.T) {
	ft := testIndex(t)
	mustAdd(t, ft, doc("named", "budget.txt", "nothing relevant"))
	mustAdd(t, ft, doc("bodied", "misc.txt", "the budget discussion continues"))
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	hits, err := ft.Search("budget", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want 2", hits)
	}
	if hits[0].ID != "named" {
		t.Errorf("first hit = %s, want the name match", hits[0].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("scores not descending: %v", hits)
	}
}

func TestReplaceSupersedesOldVersion(t *testing.T) {
	ft := testIndex(t)
	mustAdd(t, ft, doc("a", "old-name.txt", ""))
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	mustAdd(t, ft, doc("a", "new-name.txt", ""))
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	hits, _ := ft.Search("old-name", 10)
	if len(hits) != 0 {
		t.Errorf("old version still matches: %+v", hits)
	}
	hits, _ = ft.Search("new-name", 10)
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("hits = %+v, want [a]", hits)
	}

	n, err := ft.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestDeleteByID(t *testing.T) {
	ft := testIndex(t)
	mustAdd(t, ft, doc("a", "doomed.txt", ""))
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ft.DeleteByID("a")
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	hits, _ := ft.Search("doomed", 10)
	if len(hits) != 0 {
		t.Errorf("deleted document still matches: %+v", hits)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	ft := testIndex(t)
	hits, err := ft.Search("   ", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits != nil {
		t.Errorf("hits = %+v, want nil", hits)
	}
}

func TestReopenPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fulltext")
	ft, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustAdd(t, ft, doc("a", "durable.txt", ""))
	if err := ft.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ft, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ft.Close()

	hits, err := ft.Search("durable", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("hits = %+v, want [a]", hits)
	}
}

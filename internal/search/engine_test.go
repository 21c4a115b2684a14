package search

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/fulltext"
	"github.com/wlfogle/OmnioSearch/internal/store"
	"github.com/wlfogle/OmnioSearch/internal/testutil"
)

func testEngine(t *testing.T, interp Interpreter) (*Engine, *store.DB, *fulltext.Index) {
	t.Helper()
	db := testutil.TestStore(t)
	ft := testutil.TestFulltext(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	// No roots keeps the live scan and grep sources quiet in tests.
	return NewEngine(db, ft, nil, interp, logger, Options{ToolTimeout: time.Second}), db, ft
}

func seed(t *testing.T, db *store.DB, ft *fulltext.Index, id, path string, size int64) {
	t.Helper()
	rec := testutil.Record(id, path)
	rec.Size = size
	stored, err := db.Upsert(rec)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	err = ft.AddOrReplace(fulltext.Document{
		ID:       stored,
		Path:     rec.Path,
		Name:     rec.Name,
		FileType: rec.FileType,
		Size:     rec.Size,
		Modified: rec.Modified,
	})
	if err != nil {
		t.Fatalf("AddOrReplace: %v", err)
	}
}

func TestSearchWithQueryIndexSource(t *testing.T) {
	e, db, ft := testEngine(t, nil)
	seed(t, db, ft, "id-1", "/docs/report.txt", 100)
	seed(t, db, ft, "id-2", "/docs/quarterly-report.txt", 5000)
	seed(t, db, ft, "id-3", "/music/song.txt", 10)
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	results, err := e.SearchWithQuery(context.Background(), FromText("report"))
	if err != nil {
		t.Fatalf("SearchWithQuery: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	seen := map[string]bool{}
	for _, r := range results {
		seen[r.Path] = true
		if r.RelevanceScore <= 0 {
			t.Errorf("%s scored %f", r.Path, r.RelevanceScore)
		}
	}
	if !seen["/docs/report.txt"] || !seen["/docs/quarterly-report.txt"] {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchWithQueryAppliesFilters(t *testing.T) {
	e, db, ft := testEngine(t, nil)
	seed(t, db, ft, "id-1", "/docs/report-small.txt", 100)
	seed(t, db, ft, "id-2", "/docs/report-big.txt", 10_000)
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	minSize := int64(1000)
	q := FromText("report")
	q.SizeMin = &minSize
	results, err := e.SearchWithQuery(context.Background(), q)
	if err != nil {
		t.Fatalf("SearchWithQuery: %v", err)
	}
	if len(results) != 1 || results[0].Path != "/docs/report-big.txt" {
		t.Errorf("results = %+v, want only the big file", results)
	}
}

func TestSearchWithQueryCapsResults(t *testing.T) {
	e, db, ft := testEngine(t, nil)
	seed(t, db, ft, "id-1", "/a/note1.txt", 10)
	seed(t, db, ft, "id-2", "/a/note2.txt", 10)
	seed(t, db, ft, "id-3", "/a/note3.txt", 10)
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	q := FromText("note")
	q.MaxResults = 2
	results, err := e.SearchWithQuery(context.Background(), q)
	if err != nil {
		t.Fatalf("SearchWithQuery: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestIndexSourceToleratesStaleHit(t *testing.T) {
	e, db, ft := testEngine(t, nil)
	seed(t, db, ft, "id-1", "/docs/ghost.txt", 10)
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	// Drop the store row but leave the full-text document committed.
	if err := db.Delete("/docs/ghost.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	results, err := e.SearchWithQuery(context.Background(), FromText("ghost"))
	if err != nil {
		t.Fatalf("SearchWithQuery: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("stale hit surfaced: %+v", results)
	}
}

type fixedInterpreter struct{ q Query }

func (f fixedInterpreter) Interpret(string) (Query, error) { return f.q, nil }

type failingInterpreter struct{}

func (failingInterpreter) Interpret(string) (Query, error) {
	return Query{}, errors.New("no idea")
}

func TestSearchUsesInterpreter(t *testing.T) {
	q := FromText("report")
	minSize := int64(1000)
	q.SizeMin = &minSize

	e, db, ft := testEngine(t, fixedInterpreter{q: q})
	seed(t, db, ft, "id-1", "/docs/report-small.txt", 100)
	seed(t, db, ft, "id-2", "/docs/report-big.txt", 10_000)
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	results, err := e.Search(context.Background(), "find big reports")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "/docs/report-big.txt" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchFallsBackOnInterpreterError(t *testing.T) {
	e, db, ft := testEngine(t, failingInterpreter{})
	seed(t, db, ft, "id-1", "/docs/report.txt", 100)
	if err := ft.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	results, err := e.Search(context.Background(), "report")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("fallback produced %d results, want 1", len(results))
	}
}

func TestIconHint(t *testing.T) {
	cases := map[string]string{
		"pdf": "document",
		"md":  "text",
		"png": "image",
		"mp3": "audio",
		"mkv": "video",
		"zip": "archive",
		"go":  "code",
		"xyz": "file",
	}
	for ft, want := range cases {
		if got := iconHint(ft); got != want {
			t.Errorf("iconHint(%q) = %q, want %q", ft, got, want)
		}
	}
}

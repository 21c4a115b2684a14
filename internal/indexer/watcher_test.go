package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
	"github.com/wlfogle/OmnioSearch/internal/discover"
	"github.com/wlfogle/OmnioSearch/internal/store"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) callback(kind, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, kind+" "+path)
}

func (l *eventLog) has(event string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == event {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, ix *Indexer, root string, log *eventLog) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ix.Watch(ctx, []string{root}, log.callback); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher a moment to register the root.
	time.Sleep(100 * time.Millisecond)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcherIndexesCreatedFile(t *testing.T) {
	root := t.TempDir()
	ix, db, ft := testIndexer(t, Options{})
	log := &eventLog{}
	startWatcher(t, ix, root, log)

	path := filepath.Join(root, "fresh.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var rec *store.FileRecord
	ok := waitFor(t, 5*time.Second, func() bool {
		rec, _ = db.GetByPath(path)
		return rec != nil
	})
	if !ok {
		t.Fatal("created file never indexed")
	}
	if rec.Name != "fresh.txt" {
		t.Errorf("record = %+v", rec)
	}

	if !waitFor(t, 5*time.Second, func() bool { return log.has("created " + path) }) {
		t.Errorf("no created event, got %v", log.events)
	}

	hits, err := ft.Search("fresh", 10)
	if err != nil {
		t.Fatalf("fulltext search: %v", err)
	}
	if len(hits) == 0 {
		t.Error("watcher write not committed to full-text index")
	}
}

func TestWatcherRemovesDeletedFile(t *testing.T) {
	root := t.TempDir()
	ix, db, _ := testIndexer(t, Options{})
	log := &eventLog{}
	startWatcher(t, ix, root, log)

	path := filepath.Join(root, "doomed.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool {
		rec, _ := db.GetByPath(path)
		return rec != nil
	}) {
		t.Fatal("file never indexed")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool {
		rec, _ := db.GetByPath(path)
		return rec == nil
	}) {
		t.Fatal("record survived file removal")
	}
	if !waitFor(t, 5*time.Second, func() bool { return log.has("deleted " + path) }) {
		t.Errorf("no deleted event, got %v", log.events)
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	ix, db, _ := testIndexer(t, Options{})
	log := &eventLog{}
	startWatcher(t, ix, root, log)

	sub := filepath.Join(root, "newdir")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "inside.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool {
		rec, _ := db.GetByPath(path)
		return rec != nil
	}) {
		t.Fatal("file in new directory never indexed")
	}
}

func TestWatcherSkipsExcludedFiles(t *testing.T) {
	root := t.TempDir()
	ix, db, _ := testIndexer(t, Options{
		Policy: discover.Policy{ExcludedExts: []string{"tmp"}},
	})
	log := &eventLog{}
	startWatcher(t, ix, root, log)

	excluded := filepath.Join(root, "scratch.tmp")
	allowed := filepath.Join(root, "keep.txt")
	if err := os.WriteFile(excluded, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(allowed, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if !waitFor(t, 5*time.Second, func() bool {
		rec, _ := db.GetByPath(allowed)
		return rec != nil
	}) {
		t.Fatal("allowed file never indexed")
	}
	if rec, _ := db.GetByPath(excluded); rec != nil {
		t.Errorf("excluded file was indexed: %+v", rec)
	}
}

func TestWatcherRenameTreatedAsDelete(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	ix, db, _ := testIndexer(t, Options{})
	log := &eventLog{}
	startWatcher(t, ix, root, log)

	path := filepath.Join(root, "moving.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool {
		rec, _ := db.GetByPath(path)
		return rec != nil
	}) {
		t.Fatal("file never indexed")
	}

	if err := os.Rename(path, filepath.Join(outside, "moving.txt")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool {
		rec, _ := db.GetByPath(path)
		return rec == nil
	}) {
		t.Fatal("old path survived the rename")
	}
}

func TestWatcherSkipsMissingRoot(t *testing.T) {
	good := t.TempDir()
	missing := filepath.Join(t.TempDir(), "gone")
	ix, db, _ := testIndexer(t, Options{})
	log := &eventLog{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ix.Watch(ctx, []string{missing, good}, log.callback); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(good, "survivor.txt")
	if err := os.WriteFile(path, []byte("still watched"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool {
		rec, _ := db.GetByPath(path)
		return rec != nil
	}) {
		t.Fatal("file under the remaining root never indexed")
	}
}

func TestWatcherFailsWhenNoRootWatchable(t *testing.T) {
	base := t.TempDir()
	ix, _, _ := testIndexer(t, Options{})

	err := ix.Watch(context.Background(), []string{
		filepath.Join(base, "a"),
		filepath.Join(base, "b"),
	}, nil)
	if !errors.Is(err, apperr.ErrDiscovery) {
		t.Fatalf("Watch error = %v, want ErrDiscovery", err)
	}
}

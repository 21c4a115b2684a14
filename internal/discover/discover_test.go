package discover

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func discoverPaths(t *testing.T, root string, policy Policy) map[string]bool {
	t.Helper()
	d := New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cands, err := d.Discover(context.Background(), []string{root}, policy)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	out := make(map[string]bool, len(cands))
	for _, c := range cands {
		rel, err := filepath.Rel(root, c.Path)
		if err != nil {
			t.Fatalf("rel: %v", err)
		}
		out[filepath.ToSlash(rel)] = true
	}
	return out
}

func TestDiscoverWalksSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "sub/deep/b.txt", "b")

	got := discoverPaths(t, root, Policy{})
	if !got["a.txt"] || !got["sub/deep/b.txt"] {
		t.Errorf("paths = %v", got)
	}
}

func TestHiddenFilesSkippedByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".secret", "x")
	writeFile(t, root, ".hidden/inside.txt", "x")
	writeFile(t, root, "visible.txt", "x")

	got := discoverPaths(t, root, Policy{})
	if len(got) != 1 || !got["visible.txt"] {
		t.Errorf("paths = %v, want only visible.txt", got)
	}

	got = discoverPaths(t, root, Policy{IncludeHidden: true})
	if !got[".secret"] || !got[".hidden/inside.txt"] {
		t.Errorf("paths = %v, want hidden entries included", got)
	}
}

func TestExcludedPrefixes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep/a.txt", "x")
	writeFile(t, root, "skip/b.txt", "x")

	got := discoverPaths(t, root, Policy{
		ExcludedPrefixes: []string{filepath.Join(root, "skip")},
	})
	if !got["keep/a.txt"] || got["skip/b.txt"] {
		t.Errorf("paths = %v", got)
	}
}

func TestExtensionFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc.txt", "x")
	writeFile(t, root, "pic.png", "x")
	writeFile(t, root, "scratch.tmp", "x")

	got := discoverPaths(t, root, Policy{ExcludedExts: []string{"tmp"}})
	if got["scratch.tmp"] || !got["doc.txt"] || !got["pic.png"] {
		t.Errorf("excluded exts: paths = %v", got)
	}

	got = discoverPaths(t, root, Policy{IncludedExts: []string{"txt"}})
	if len(got) != 1 || !got["doc.txt"] {
		t.Errorf("included exts: paths = %v, want only doc.txt", got)
	}
}

func TestMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.txt", "ok")
	writeFile(t, root, "big.txt", "0123456789")

	got := discoverPaths(t, root, Policy{MaxFileSize: 5})
	if !got["small.txt"] || got["big.txt"] {
		t.Errorf("paths = %v", got)
	}
}

func TestMissingRootSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	d := New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cands, err := d.Discover(context.Background(), []string{"/no/such/dir", root}, Policy{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(cands) != 1 {
		t.Errorf("got %d candidates, want 1", len(cands))
	}
}

func TestDiscoverHonorsContextCancel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	_, err := d.Discover(ctx, []string{root}, Policy{})
	if err == nil {
		t.Error("expected context error")
	}
}

func TestPolicyAllows(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "note.txt", "hello")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if !(Policy{}).Allows(path, info) {
		t.Error("plain file should be allowed")
	}
	if (Policy{ExcludedExts: []string{"txt"}}).Allows(path, info) {
		t.Error("excluded extension should be rejected")
	}
	if (Policy{MaxFileSize: 1}).Allows(path, info) {
		t.Error("oversized file should be rejected")
	}

	hidden := writeFile(t, root, ".env", "x")
	hiddenInfo, _ := os.Stat(hidden)
	if (Policy{}).Allows(hidden, hiddenInfo) {
		t.Error("hidden file should be rejected by default")
	}
	if !(Policy{IncludeHidden: true}).Allows(hidden, hiddenInfo) {
		t.Error("hidden file should pass with IncludeHidden")
	}
}

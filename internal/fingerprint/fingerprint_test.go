package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, path, content string) os.FileInfo {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	return info
}

func TestDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	info := write(t, path, "hello")

	first, err := File(path, info)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	second, err := File(path, info)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if first != second {
		t.Errorf("fingerprint not stable: %s vs %s", first, second)
	}
	if len(first) != 16 {
		t.Errorf("fingerprint %q, want 16 hex chars", first)
	}
}

func TestSmallFileContentChangesFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	info := write(t, path, "aaaaa")
	before, err := File(path, info)
	if err != nil {
		t.Fatalf("File: %v", err)
	}

	// Same size and mtime, different bytes. Content is hashed for files
	// under 1 KB, so the fingerprint must still move.
	info2 := write(t, path, "bbbbb")
	mtime := info.ModTime()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	info2, err = os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	after, err := File(path, info2)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if before == after {
		t.Error("fingerprint unchanged after content edit")
	}
}

func TestMtimeChangesFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	info := write(t, path, "same")
	before, _ := File(path, info)

	later := info.ModTime().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	after, _ := File(path, info)
	if before == after {
		t.Error("fingerprint unchanged after mtime bump")
	}
}

func TestPathContributes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	infoA := write(t, a, "same content")
	infoB := write(t, b, "same content")
	mtime := infoA.ModTime()
	if err := os.Chtimes(b, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	infoB, _ = os.Stat(b)

	fpA, _ := File(a, infoA)
	fpB, _ := File(b, infoB)
	if fpA == fpB {
		t.Error("identical twins at different paths share a fingerprint")
	}
}

func TestUnreadableSmallFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read anything")
	}
	path := filepath.Join(t.TempDir(), "a.txt")
	info := write(t, path, "secret")
	if err := os.Chmod(path, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(path, 0o644) })

	if _, err := File(path, info); err == nil {
		t.Error("expected read error")
	}
}

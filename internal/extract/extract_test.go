package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestSupported(t *testing.T) {
	cases := []struct {
		path, mime string
		want       bool
	}{
		{"/a/readme.md", "", true},
		{"/a/main.go", "", true},
		{"/a/notes", "text/plain", true},
		{"/a/paper.pdf", "application/pdf", true},
		{"/a/photo.jpg", "image/jpeg", false},
		{"/a/archive.zip", "application/zip", false},
	}
	for _, tc := range cases {
		if got := Supported(tc.path, tc.mime); got != tc.want {
			t.Errorf("Supported(%q, %q) = %v, want %v", tc.path, tc.mime, got, tc.want)
		}
	}
}

func TestTextPlain(t *testing.T) {
	path := writeFile(t, "note.txt", []byte("meeting notes\nsecond line\n"))
	got, err := Text(path, "text/plain")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "meeting notes\nsecond line\n" {
		t.Errorf("content = %q", got)
	}
}

func TestTextRejectsBinary(t *testing.T) {
	path := writeFile(t, "blob.txt", []byte{'a', 0x00, 'b'})
	_, err := Text(path, "text/plain")
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

func TestTextRejectsInvalidUTF8(t *testing.T) {
	path := writeFile(t, "bad.txt", []byte{0xff, 0xfe, 0xfd})
	_, err := Text(path, "text/plain")
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

func TestTextMissingFile(t *testing.T) {
	_, err := Text(filepath.Join(t.TempDir(), "gone.txt"), "text/plain")
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

func TestTextBrokenPDF(t *testing.T) {
	path := writeFile(t, "fake.pdf", []byte("not a pdf at all"))
	_, err := Text(path, "application/pdf")
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
}

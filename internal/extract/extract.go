// Package extract pulls indexable text out of supported file types for the
// content-extraction phase of the indexing pipeline.
package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
)

// maxContentBytes caps how much text a single file may contribute.
const maxContentBytes = 1 << 20 // 1 MiB

// textExtensions are extracted as plain text regardless of MIME guess.
var textExtensions = map[string]struct{}{
	"txt": {}, "md": {}, "rst": {}, "csv": {}, "log": {}, "json": {},
	"yaml": {}, "yml": {}, "toml": {}, "ini": {}, "xml": {}, "html": {},
	"go": {}, "rs": {}, "py": {}, "js": {}, "ts": {}, "c": {}, "h": {},
	"cpp": {}, "java": {}, "sh": {}, "sql": {},
}

// Supported reports whether Text can extract content for the given path
// and MIME type.
func Supported(path, mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") || mimeType == "application/pdf" {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := textExtensions[ext]
	return ok
}

// Text extracts the textual content of the file at path. Unsupported or
// binary-looking files and per-file read failures return an error wrapping
// apperr.ErrExtraction; callers log and skip.
func Text(path, mimeType string) (string, error) {
	if mimeType == "application/pdf" || strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdfText(path)
	}
	return plainText(path)
}

func plainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract: read %s: %w", path, apperr.ErrExtraction)
	}
	if len(data) > maxContentBytes {
		data = data[:maxContentBytes]
	}
	// Reject content that is clearly not text.
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", fmt.Errorf("extract: %s is not text: %w", path, apperr.ErrExtraction)
	}
	return string(data), nil
}

func pdfText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open pdf %s: %w", path, apperr.ErrExtraction)
	}
	defer f.Close()

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A broken page should not lose the rest of the document.
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
		if sb.Len() > maxContentBytes {
			break
		}
	}
	out := sb.String()
	if len(out) > maxContentBytes {
		out = out[:maxContentBytes]
	}
	return out, nil
}

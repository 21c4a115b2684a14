package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wlfogle/OmnioSearch/internal/apperr"
	"github.com/wlfogle/OmnioSearch/internal/store"
)

// indexSource queries the metadata store's shadow text index and the
// full-text index, joins hits back to their records, and keeps only
// candidates that satisfy every query bound.
func (e *Engine) indexSource(ctx context.Context, q Query) []Result {
	seen := make(map[string]struct{})
	var out []Result

	records, err := e.db.TextSearch(q.Text, q.MaxResults)
	if err != nil {
		e.logger.Warn("search: shadow lookup failed", slog.String("error", err.Error()))
	}
	for _, rec := range records {
		if _, dup := seen[rec.Path]; dup {
			continue
		}
		if !q.matchesFilters(rec.Size, rec.Modified, rec.FileType) {
			continue
		}
		seen[rec.Path] = struct{}{}
		out = append(out, e.resultFor(rec, q))
	}

	hits, err := e.ft.Search(q.Text, q.MaxResults)
	if err != nil {
		e.logger.Warn("search: fulltext lookup failed", slog.String("error", err.Error()))
		return out
	}
	for _, hit := range hits {
		if ctx.Err() != nil {
			return out
		}
		rec, err := e.db.GetByID(hit.ID)
		if err != nil {
			// The full-text index can briefly hold ids deleted from the
			// store between commits.
			if !errors.Is(err, apperr.ErrNotFound) {
				e.logger.Warn("search: record join failed", slog.String("id", hit.ID), slog.String("error", err.Error()))
			}
			continue
		}
		if _, dup := seen[rec.Path]; dup {
			continue
		}
		if !q.matchesFilters(rec.Size, rec.Modified, rec.FileType) {
			continue
		}
		seen[rec.Path] = struct{}{}
		out = append(out, e.resultFor(*rec, q))
	}
	return out
}

func (e *Engine) resultFor(rec store.FileRecord, q Query) Result {
	return Result{
		Path:           rec.Path,
		Name:           rec.Name,
		Size:           rec.Size,
		Modified:       rec.Modified,
		FileType:       rec.FileType,
		MimeType:       rec.MimeType,
		RelevanceScore: filenameScore(q.Text, rec.Name, rec.Modified, q.FuzzyThreshold),
		IsDirectory:    rec.IsDirectory,
		Permissions:    rec.Permissions,
		IconHint:       iconHint(rec.FileType),
	}
}

func iconHint(fileType string) string {
	switch fileType {
	case "pdf":
		return "document"
	case "txt", "md", "rst", "log":
		return "text"
	case "jpg", "jpeg", "png", "gif", "svg", "webp":
		return "image"
	case "mp3", "flac", "ogg", "wav":
		return "audio"
	case "mp4", "mkv", "webm", "avi":
		return "video"
	case "zip", "tar", "gz", "xz", "zst", "7z":
		return "archive"
	case "go", "rs", "py", "js", "ts", "c", "h", "cpp", "java", "sh":
		return "code"
	default:
		return "file"
	}
}

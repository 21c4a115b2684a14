package search

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// fdSource shells out to fd for a live filesystem scan over the configured
// roots. An absent or failing binary degrades to an empty result set.
func (e *Engine) fdSource(ctx context.Context, q Query) []Result {
	// Without explicit roots fd would scan the working directory.
	if len(e.opts.Roots) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.ToolTimeout)
	defer cancel()

	args := []string{"--absolute-path", "--max-results", strconv.Itoa(q.MaxResults)}
	if q.IncludeHidden {
		args = append(args, "--hidden")
	}
	for _, ft := range q.FileTypes {
		args = append(args, "--extension", strings.TrimPrefix(ft, "."))
	}
	args = append(args, q.Text)
	args = append(args, e.opts.Roots...)

	out, err := runTool(ctx, "fd", args...)
	if err != nil {
		e.logger.Debug("search: live scan skipped", slog.String("error", err.Error()))
		return nil
	}

	var results []Result
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		path := strings.TrimSpace(scanner.Text())
		if path == "" {
			continue
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}
		if !q.matchesFilters(info.Size(), info.ModTime(), extOf(path)) {
			continue
		}
		name := filepath.Base(path)
		results = append(results, Result{
			Path:           path,
			Name:           name,
			Size:           info.Size(),
			Modified:       info.ModTime(),
			FileType:       extOf(path),
			MimeType:       mimeOf(path),
			RelevanceScore: filenameScore(q.Text, name, info.ModTime(), q.FuzzyThreshold),
			IsDirectory:    info.IsDir(),
			Permissions:    permString(info),
			IconHint:       iconHint(extOf(path)),
		})
		if len(results) >= q.MaxResults {
			break
		}
	}
	return results
}

func extOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func mimeOf(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

func permString(info os.FileInfo) string {
	return fmt.Sprintf("%04o", info.Mode().Perm())
}

package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	grepMatchesPerFile = 10
	grepMaxFileSize    = "10M"
)

// rgMessage is one line of ripgrep's --json stream. Only "match" messages
// are consumed; begin/end/context lines are skipped.
type rgMessage struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		Lines struct {
			Text string `json:"text"`
		} `json:"lines"`
		LineNumber int `json:"line_number"`
		Submatches []struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"submatches"`
	} `json:"data"`
}

// parseGrepStream decodes ripgrep's --json line stream into per-file
// content matches, capped at grepMatchesPerFile per path. Non-match
// messages and undecodable lines are skipped.
func parseGrepStream(out []byte) map[string][]ContentMatch {
	matches := make(map[string][]ContentMatch)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg rgMessage
		if json.Unmarshal(scanner.Bytes(), &msg) != nil || msg.Type != "match" {
			continue
		}
		path := msg.Data.Path.Text
		if path == "" || len(matches[path]) >= grepMatchesPerFile {
			continue
		}
		cm := ContentMatch{
			LineNumber:  msg.Data.LineNumber,
			LineContent: msg.Data.Lines.Text,
		}
		if len(msg.Data.Submatches) > 0 {
			cm.MatchStart = msg.Data.Submatches[0].Start
			cm.MatchEnd = msg.Data.Submatches[0].End
		}
		matches[path] = append(matches[path], cm)
	}
	return matches
}

// rgSource shells out to ripgrep for a live content grep over the
// configured roots, collecting line-level matches capped per file. An
// absent or failing binary degrades to an empty result set.
func (e *Engine) rgSource(ctx context.Context, q Query) []Result {
	// Without explicit roots rg would grep the working directory.
	if len(e.opts.Roots) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.ToolTimeout)
	defer cancel()

	args := []string{
		"--json",
		"--ignore-case",
		"--max-count", strconv.Itoa(grepMatchesPerFile),
		"--max-filesize", grepMaxFileSize,
	}
	if q.IncludeHidden {
		args = append(args, "--hidden")
	}
	for _, ft := range q.FileTypes {
		args = append(args, "--glob", "*."+strings.TrimPrefix(ft, "."))
	}
	args = append(args, "--", q.Text)
	args = append(args, e.opts.Roots...)

	out, err := runTool(ctx, "rg", args...)
	if err != nil {
		// rg exits 1 when nothing matched; that is not a failure.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil
		}
		e.logger.Debug("search: content grep skipped", slog.String("error", err.Error()))
		return nil
	}

	matches := parseGrepStream(out)

	var results []Result
	for path, cms := range matches {
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}
		if !q.matchesFilters(info.Size(), info.ModTime(), extOf(path)) {
			continue
		}
		var lines bytes.Buffer
		for _, cm := range cms {
			lines.WriteString(cm.LineContent)
		}
		results = append(results, Result{
			Path:           path,
			Name:           filepath.Base(path),
			Size:           info.Size(),
			Modified:       info.ModTime(),
			FileType:       extOf(path),
			MimeType:       mimeOf(path),
			RelevanceScore: contentScore(q.Text, lines.String()),
			ContentMatches: cms,
			Permissions:    permString(info),
			IconHint:       iconHint(extOf(path)),
		})
		if len(results) >= q.MaxResults {
			break
		}
	}
	return results
}

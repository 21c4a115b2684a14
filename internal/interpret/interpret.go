// Package interpret turns free-text queries into structured search
// queries with rule-based intent classification and entity extraction.
package interpret

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/wlfogle/OmnioSearch/internal/search"
)

type intent int

const (
	intentFindFiles intent = iota
	intentFindByType
	intentFindByDate
	intentFindBySize
	intentFindByContent
	intentFindRecent
)

const (
	largeSizeMin = 100 * 1024 * 1024
	smallSizeMax = 1024 * 1024
	recentWindow = 7 * 24 * time.Hour
)

// intentPatterns maps trigger substrings to intents. More specific
// triggers come first; the first match wins.
var intentPatterns = []struct {
	trigger string
	intent  intent
}{
	{"contain", intentFindByContent},
	{"content", intentFindByContent},
	{"last week", intentFindByDate},
	{"yesterday", intentFindByDate},
	{"today", intentFindByDate},
	{"recent", intentFindRecent},
	{"large", intentFindBySize},
	{"big", intentFindBySize},
	{"small", intentFindBySize},
	{"pdf", intentFindByType},
	{"image", intentFindByType},
	{"video", intentFindByType},
	{"document", intentFindByType},
}

var (
	fileTypeRe  = regexp.MustCompile(`\.(\w+)(?:\s|$)`)
	typeWordRe  = regexp.MustCompile(`(\w+)\s+files?`)
	dateWordRe  = regexp.MustCompile(`(today|yesterday|last\s+week|last\s+month)`)
	sizeWordRe  = regexp.MustCompile(`(large|big|small|tiny)`)
	quotedRe    = regexp.MustCompile(`contains?\s+["']([^"']+)["']`)
	stopwordsRe = regexp.MustCompile(`\b(find|search|look for|files?|show me|all|the)\b`)
)

// typeAliases maps spoken type words to extension filter sets.
var typeAliases = map[string][]string{
	"pdf":      {"pdf"},
	"image":    {"jpg", "jpeg", "png", "gif", "webp", "svg"},
	"photo":    {"jpg", "jpeg", "png"},
	"video":    {"mp4", "mkv", "webm", "avi", "mov"},
	"audio":    {"mp3", "flac", "ogg", "wav"},
	"document": {"pdf", "doc", "docx", "odt", "txt", "md"},
	"code":     {"go", "rs", "py", "js", "ts", "c", "cpp", "java", "sh"},
}

// Interpreter is a rule-based query interpreter.
type Interpreter struct {
	logger *slog.Logger
}

var _ search.Interpreter = (*Interpreter)(nil)

// New creates an Interpreter.
func New(logger *slog.Logger) *Interpreter {
	return &Interpreter{logger: logger}
}

// Interpret classifies the text's intent, extracts entities, and builds a
// structured query around the residual search terms.
func (in *Interpreter) Interpret(text string) (search.Query, error) {
	lower := strings.ToLower(text)
	q := search.FromNaturalLanguage(text)

	switch classify(lower) {
	case intentFindByType:
		q.FileTypes = extractFileTypes(lower)
	case intentFindByDate:
		if after := extractDateBound(lower); after != nil {
			q.ModifiedAfter = after
		}
	case intentFindBySize:
		applySizeBound(&q, lower)
	case intentFindByContent:
		q.SearchContent = true
		if m := quotedRe.FindStringSubmatch(text); m != nil {
			q.Text = m[1]
		}
	case intentFindRecent:
		after := time.Now().Add(-recentWindow)
		q.ModifiedAfter = &after
	}

	if q.Text == text {
		q.Text = residualTerms(lower)
	}
	in.logger.Debug("interpret: parsed",
		slog.String("input", text),
		slog.String("terms", q.Text),
		slog.Int("types", len(q.FileTypes)))
	return q, nil
}

func classify(lower string) intent {
	for _, p := range intentPatterns {
		if strings.Contains(lower, p.trigger) {
			return p.intent
		}
	}
	return intentFindFiles
}

func extractFileTypes(lower string) []string {
	if m := fileTypeRe.FindStringSubmatch(lower); m != nil {
		return []string{m[1]}
	}
	seen := make(map[string]struct{})
	var types []string
	for _, m := range typeWordRe.FindAllStringSubmatch(lower, -1) {
		exts, ok := typeAliases[m[1]]
		if !ok {
			exts = []string{m[1]}
		}
		for _, ext := range exts {
			if _, dup := seen[ext]; dup {
				continue
			}
			seen[ext] = struct{}{}
			types = append(types, ext)
		}
	}
	for alias, exts := range typeAliases {
		if !strings.Contains(lower, alias) {
			continue
		}
		for _, ext := range exts {
			if _, dup := seen[ext]; dup {
				continue
			}
			seen[ext] = struct{}{}
			types = append(types, ext)
		}
	}
	return types
}

func extractDateBound(lower string) *time.Time {
	m := dateWordRe.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	now := time.Now()
	var after time.Time
	switch {
	case m[1] == "today":
		after = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case m[1] == "yesterday":
		after = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	case strings.Contains(m[1], "week"):
		after = now.AddDate(0, 0, -7)
	case strings.Contains(m[1], "month"):
		after = now.AddDate(0, -1, 0)
	default:
		return nil
	}
	return &after
}

func applySizeBound(q *search.Query, lower string) {
	m := sizeWordRe.FindStringSubmatch(lower)
	if m == nil {
		return
	}
	switch m[1] {
	case "large", "big":
		sizeMin := int64(largeSizeMin)
		q.SizeMin = &sizeMin
	case "small", "tiny":
		sizeMax := int64(smallSizeMax)
		q.SizeMax = &sizeMax
	}
}

// residualTerms strips command words and filter vocabulary, leaving the
// terms that actually identify files.
func residualTerms(lower string) string {
	out := stopwordsRe.ReplaceAllString(lower, " ")
	out = dateWordRe.ReplaceAllString(out, " ")
	out = sizeWordRe.ReplaceAllString(out, " ")
	return strings.Join(strings.Fields(out), " ")
}
